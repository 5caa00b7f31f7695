// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sources

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/trendline/core"
	"golang.org/x/net/html"
)

// maxDescription bounds descriptions extracted from article markup.
const maxDescription = 200

// minDescription is the shortest paragraph accepted as a description.
const minDescription = 20

// HTMLAdapter extracts trend records from <article> elements of a web page.
type HTMLAdapter struct {
	client *http.Client
	now    func() time.Time
}

var _ Adapter = (*HTMLAdapter)(nil)

// NewHTMLAdapter creates an HTML adapter using client.
func NewHTMLAdapter(client *http.Client, now func() time.Time) *HTMLAdapter {
	return &HTMLAdapter{client: client, now: now}
}

// Kind returns core.KindHTML.
func (a *HTMLAdapter) Kind() core.RecordKind {
	return core.KindHTML
}

// Fetch downloads cfg.URL and turns up to cfg.Limit articles into records.
// Each article yields its first heading as the name, its first link as the
// URL and its first substantial paragraph as the description. Articles
// without a heading produce records with an empty name, which normalization
// rejects.
func (a *HTMLAdapter) Fetch(ctx context.Context, cfg Config) ([]core.RawRecord, error) {
	body, err := get(ctx, a.client, cfg.Name, cfg.URL, "text/html")
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &core.FetchError{Source: cfg.Name, Cause: err}
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, &core.FetchError{Source: cfg.Name, Cause: err}
	}

	observed := a.now()
	var out []core.RawRecord
	for _, article := range findArticles(doc, cfg.ArticleClasses) {
		if len(out) >= cfg.limit() {
			break
		}
		raw := core.RawRecord{
			Source:      cfg.Name,
			Kind:        core.KindHTML,
			ObservedAt:  observed,
			Name:        textOf(firstElement(article, "h1", "h2", "h3")),
			Description: describe(article),
		}
		if link := firstElement(article, "a"); link != nil {
			raw.URL = resolve(base, attr(link, "href"))
		}
		if img := firstElement(article, "img"); img != nil {
			raw.ImageURL = resolve(base, attr(img, "src"))
		}
		out = append(out, cfg.applyDefaults(raw))
	}
	return out, nil
}

// findArticles returns <article> elements in document order, optionally
// restricted to those whose class contains one of classes.
func findArticles(doc *html.Node, classes []string) []*html.Node {
	var found []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "article" && hasClass(n, classes) {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return found
}

func hasClass(n *html.Node, classes []string) bool {
	if len(classes) == 0 {
		return true
	}
	class := strings.ToLower(attr(n, "class"))
	for _, c := range classes {
		if strings.Contains(class, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// firstElement returns the first descendant of n (depth first) whose tag is
// one of tags.
func firstElement(n *html.Node, tags ...string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			for _, t := range tags {
				if c.Data == t {
					return c
				}
			}
		}
		if found := firstElement(c, tags...); found != nil {
			return found
		}
	}
	return nil
}

// describe returns the first paragraph long enough to serve as a description.
func describe(article *html.Node) string {
	var desc string
	var traverse func(*html.Node) bool
	traverse = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "p" {
			if text := textOf(n); len(text) > minDescription {
				desc = truncate(text, maxDescription)
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if traverse(c) {
				return true
			}
		}
		return false
	}
	traverse(article)
	return desc
}

// textOf extracts whitespace-collapsed text under n.
func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}
