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
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/trendline/core"
)

// FeedAdapter reads trend records from a JSON feed. The payload is either an
// array of objects or an object holding the array under "items", "trends",
// "hits" or "data". Unrecognized keys are preserved as extensions.
type FeedAdapter struct {
	client *http.Client
	now    func() time.Time
}

var _ Adapter = (*FeedAdapter)(nil)

// NewFeedAdapter creates a feed adapter using client.
func NewFeedAdapter(client *http.Client, now func() time.Time) *FeedAdapter {
	return &FeedAdapter{client: client, now: now}
}

// Kind returns core.KindFeed.
func (a *FeedAdapter) Kind() core.RecordKind {
	return core.KindFeed
}

// Fetch downloads and decodes cfg.URL.
func (a *FeedAdapter) Fetch(ctx context.Context, cfg Config) ([]core.RawRecord, error) {
	body, err := get(ctx, a.client, cfg.Name, cfg.URL, "application/json")
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, &core.FetchError{Source: cfg.Name, Cause: err}
	}

	observed := a.now()
	out := make([]core.RawRecord, 0, min(len(items), cfg.limit()))
	for _, item := range items {
		if len(out) >= cfg.limit() {
			break
		}
		raw := decodeItem(item)
		raw.Source = cfg.Name
		raw.Kind = core.KindFeed
		if raw.ObservedAt.IsZero() {
			raw.ObservedAt = observed
		}
		out = append(out, cfg.applyDefaults(raw))
	}
	return out, nil
}

func decodeItems(body []byte) ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrMalformedPayload, err)
	}
	for _, key := range []string{"items", "trends", "hits", "data"} {
		if rawItems, ok := envelope[key]; ok {
			if err := json.Unmarshal(rawItems, &items); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedPayload, key, err)
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("%w: no item array", core.ErrMalformedPayload)
}

// decodeItem maps one feed object onto a RawRecord.
func decodeItem(item map[string]any) core.RawRecord {
	var raw core.RawRecord
	for key, v := range item {
		switch strings.ToLower(key) {
		case "name", "title":
			if raw.Name == "" {
				raw.Name = str(v)
			}
		case "brand":
			raw.Brand = str(v)
		case "category":
			raw.Category = str(v)
		case "description", "summary":
			if raw.Description == "" {
				raw.Description = str(v)
			}
		case "url", "source_url", "link":
			if raw.URL == "" {
				raw.URL = str(v)
			}
		case "image_url", "image":
			raw.ImageURL = str(v)
		case "stage", "type":
			raw.Stage = str(v)
		case "regions", "region":
			raw.Regions = strs(v)
		case "tags":
			raw.Tags = strs(v)
		case "color_palette", "colors":
			raw.Colors = strs(v)
		case "brand_adoptions":
			raw.BrandAdoptions = strs(v)
		case "trend_score":
			raw.TrendScore = num(v)
		case "growth_rate":
			raw.GrowthRate = num(v)
		case "sustainability_score":
			raw.SustainabilityScore = num(v)
		case "social_mentions":
			raw.SocialMentions = integer(v)
		case "influencer_adoptions":
			raw.InfluencerAdoptions = integer(v)
		case "predicted_peak":
			raw.PredictedPeak = str(v)
		case "scraped_at", "observed_at", "published_at":
			if t, err := time.Parse(time.RFC3339, str(v)); err == nil {
				raw.ObservedAt = t.UTC()
			}
		case "score_scale":
			raw.Scale = core.ScoreScale(str(v))
		case "demographics":
			demographics(&raw, v)
		default:
			extend(&raw, key, v)
		}
	}
	return raw
}

func demographics(raw *core.RawRecord, v any) {
	m, ok := v.(map[string]any)
	if !ok {
		extend(raw, "demographics", v)
		return
	}
	for key, val := range m {
		switch key {
		case "primary_age":
			raw.PrimaryAge = str(val)
		case "secondary_age":
			raw.SecondaryAge = str(val)
		case "gender_split":
			if split, ok := val.(map[string]any); ok {
				raw.GenderSplit = make(map[string]int, len(split))
				for k, share := range split {
					if n := num(share); n != nil {
						raw.GenderSplit[k] = int(math.Round(*n))
					}
				}
			}
		default:
			extend(raw, "demographics."+key, val)
		}
	}
}

func extend(raw *core.RawRecord, key string, v any) {
	if raw.Extensions == nil {
		raw.Extensions = make(map[string]string)
	}
	switch v.(type) {
	case map[string]any, []any:
		data, _ := json.Marshal(v)
		raw.Extensions[key] = string(data)
	default:
		raw.Extensions[key] = str(v)
	}
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func strs(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s := str(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, s := range strings.Split(t, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func num(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

func integer(v any) *int64 {
	f := num(v)
	if f == nil {
		return nil
	}
	n := int64(math.Round(*f))
	return &n
}
