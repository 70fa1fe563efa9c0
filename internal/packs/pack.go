// Package packs imports YAML prompt packs into the catalog and watches a
// directory for new or changed packs.
package packs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// Pack is a named collection of prompts distributed as one YAML file.
//
//	id: writing-essentials
//	name: Writing essentials
//	prompts:
//	  - key: cold-email
//	    title: Cold email opener
//	    content: ...
//	    token_usage: low
//	    categories: [Marketers]
//	    ai_models: [Claude, GPT-4]
type Pack struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"`
	Tags        []string `yaml:"tags"`
	Prompts     []Prompt `yaml:"prompts"`
}

// Prompt is one entry of a pack. Key identifies it within the pack across re-imports.
type Prompt struct {
	Key             string   `yaml:"key"`
	Title           string   `yaml:"title"`
	Description     string   `yaml:"description"`
	Content         string   `yaml:"content"`
	TokenUsage      string   `yaml:"token_usage"`
	Categories      []string `yaml:"categories"`
	AIModels        []string `yaml:"ai_models"`
	Emoji           string   `yaml:"emoji"`
	BackgroundColor string   `yaml:"background_color"`
}

// IsPackFile reports whether path has a pack extension.
func IsPackFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ParseFile reads and validates a pack file.
func ParseFile(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pack: %w", err)
	}
	pack, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return pack, nil
}

// Parse decodes and validates one pack document. Unknown fields are rejected.
func Parse(data []byte) (*Pack, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty pack")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var pack Pack
	if err := dec.Decode(&pack); err != nil {
		return nil, fmt.Errorf("decode pack: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return nil, errors.New("multiple YAML documents are not supported")
	} else if !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode pack: %w", err)
	}

	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// Validate checks required fields, key uniqueness and token usage buckets.
func (p *Pack) Validate() error {
	var errs []error
	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("pack id is required"))
	}
	if len(p.Prompts) == 0 {
		errs = append(errs, errors.New("pack has no prompts"))
	}

	seen := make(map[string]bool, len(p.Prompts))
	for i, pr := range p.Prompts {
		where := fmt.Sprintf("prompt %d", i+1)
		if pr.Key != "" {
			where = fmt.Sprintf("prompt %q", pr.Key)
		}
		switch {
		case strings.TrimSpace(pr.Key) == "":
			errs = append(errs, fmt.Errorf("%s: key is required", where))
		case seen[pr.Key]:
			errs = append(errs, fmt.Errorf("%s: duplicate key", where))
		}
		seen[pr.Key] = true

		if strings.TrimSpace(pr.Title) == "" {
			errs = append(errs, fmt.Errorf("%s: title is required", where))
		}
		if strings.TrimSpace(pr.Content) == "" {
			errs = append(errs, fmt.Errorf("%s: content is required", where))
		}
		if pr.TokenUsage != "" {
			if _, ok := domain.ParseTokenUsage(pr.TokenUsage); !ok {
				errs = append(errs, fmt.Errorf("%s: unknown token usage %q", where, pr.TokenUsage))
			}
		}
	}
	return errors.Join(errs...)
}
