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
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/poiesic/trendline/core"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog is the immutable set of configured sources, loaded once per process.
type Catalog struct {
	Sources []Config `yaml:"sources"`
}

// DefaultCatalog returns the built-in catalog of fashion sources.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("built-in source catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCatalog(f)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that source names are unique and each source can be fetched.
func (c *Catalog) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("%w: no sources", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("%w: source %d has no name", ErrInvalidCatalog, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate source %q", ErrInvalidCatalog, s.Name)
		}
		seen[s.Name] = true

		switch s.Kind {
		case core.KindHTML, core.KindFeed:
			if s.URL == "" {
				return fmt.Errorf("%w: source %q needs a url", ErrInvalidCatalog, s.Name)
			}
		case core.KindStatic:
			if len(s.Records) == 0 {
				return fmt.Errorf("%w: static source %q has no records", ErrInvalidCatalog, s.Name)
			}
		default:
			return fmt.Errorf("%w: source %q has unknown kind %q", ErrInvalidCatalog, s.Name, s.Kind)
		}
		switch s.Scale {
		case "", core.ScaleUnit, core.ScalePercent:
		default:
			return fmt.Errorf("%w: source %q has unknown score_scale %q", ErrInvalidCatalog, s.Name, s.Scale)
		}
	}
	return nil
}

// Lookup returns the configuration of the named source.
func (c *Catalog) Lookup(name string) (Config, bool) {
	i := slices.IndexFunc(c.Sources, func(s Config) bool { return s.Name == name })
	if i < 0 {
		return Config{}, false
	}
	return c.Sources[i], true
}

// Names lists source names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		names[i] = s.Name
	}
	return names
}

// Descriptors returns the public description of every source.
func (c *Catalog) Descriptors() []core.Source {
	out := make([]core.Source, len(c.Sources))
	for i, s := range c.Sources {
		out[i] = s.Source
		out[i].Categories = slices.Clone(s.Categories)
	}
	return out
}
