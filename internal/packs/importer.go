package packs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/heyprompt/heyprompt-server/internal/color"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// TagStore resolves tag names, creating unknown ones.
type TagStore interface {
	FindOrCreateTag(ctx context.Context, tagType domain.TagType, name string) (*domain.Tag, bool, error)
}

// PromptStore persists pack prompts idempotently.
type PromptStore interface {
	UpsertPackPrompts(ctx context.Context, prompts []store.PackPrompt) (created, updated int, err error)
}

// Result summarizes one import.
type Result struct {
	PackID      string
	Created     int
	Updated     int
	TagsCreated int
}

// Changed reports whether the import touched any prompt.
func (r Result) Changed() bool {
	return r.Created+r.Updated > 0
}

// Importer turns packs into stored prompts.
type Importer struct {
	tags     TagStore
	prompts  PromptStore
	logger   *slog.Logger
	now      func() time.Time
	onImport func(context.Context, Result)
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithOnImport registers a hook run after every successful import.
func WithOnImport(fn func(context.Context, Result)) ImporterOption {
	return func(i *Importer) { i.onImport = fn }
}

// NewImporter creates an importer.
func NewImporter(tags TagStore, prompts PromptStore, logger *slog.Logger, opts ...ImporterOption) *Importer {
	i := &Importer{tags: tags, prompts: prompts, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import upserts every prompt of pack. Pack prompts are published.
// Re-importing an unchanged pack updates rows in place and creates nothing.
func (i *Importer) Import(ctx context.Context, pack *Pack) (Result, error) {
	res := Result{PackID: pack.ID}
	now := i.now()

	resolved := map[domain.TagType]map[string]string{
		domain.TagTypeCategory: {},
		domain.TagTypeAIModel:  {},
	}
	resolve := func(tagType domain.TagType, names []string) ([]string, error) {
		ids := make([]string, 0, len(names))
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if tagID, ok := resolved[tagType][name]; ok {
				ids = append(ids, tagID)
				continue
			}
			tag, created, err := i.tags.FindOrCreateTag(ctx, tagType, name)
			if err != nil {
				return nil, fmt.Errorf("resolve %s tag %q: %w", tagType, name, err)
			}
			if created {
				res.TagsCreated++
			}
			resolved[tagType][name] = tag.ID
			ids = append(ids, tag.ID)
		}
		return ids, nil
	}

	batch := make([]store.PackPrompt, 0, len(pack.Prompts))
	for _, pr := range pack.Prompts {
		categories, err := resolve(domain.TagTypeCategory, pr.Categories)
		if err != nil {
			return res, err
		}
		models, err := resolve(domain.TagTypeAIModel, pr.AIModels)
		if err != nil {
			return res, err
		}
		tagIDs := slices.Concat(categories, models)
		slices.Sort(tagIDs)
		tagIDs = slices.Compact(tagIDs)

		usage, ok := domain.ParseTokenUsage(pr.TokenUsage)
		if !ok {
			usage = domain.TokenUsageMedium
		}

		promptID, err := id.Generate("prompt")
		if err != nil {
			return res, fmt.Errorf("generate prompt ID: %w", err)
		}

		batch = append(batch, store.PackPrompt{
			Prompt: &domain.Prompt{
				Entity:          domain.Entity{ID: promptID, CreatedAt: now, UpdatedAt: now},
				Title:           strings.TrimSpace(pr.Title),
				Description:     strings.TrimSpace(pr.Description),
				Content:         strings.TrimSpace(pr.Content),
				TokenUsage:      usage,
				Emoji:           pr.Emoji,
				BackgroundColor: color.Or(pr.BackgroundColor, pack.ID+"/"+pr.Key),
				IsPublished:     true,
				Version:         1,
				PackID:          pack.ID,
				PackKey:         pr.Key,
			},
			TagIDs: tagIDs,
		})
	}

	created, updated, err := i.prompts.UpsertPackPrompts(ctx, batch)
	if err != nil {
		return res, fmt.Errorf("upsert pack %s: %w", pack.ID, err)
	}
	res.Created, res.Updated = created, updated

	i.logger.Info("prompt pack imported",
		"pack_id", pack.ID,
		"created", res.Created,
		"updated", res.Updated,
		"tags_created", res.TagsCreated,
	)
	if i.onImport != nil {
		i.onImport(ctx, res)
	}
	return res, nil
}

// ImportFile parses and imports one pack file.
func (i *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	pack, err := ParseFile(path)
	if err != nil {
		return Result{}, err
	}
	return i.Import(ctx, pack)
}

// ImportDir imports every pack file directly inside dir, in name order.
// A broken pack is logged and skipped; the remaining packs are still imported.
func (i *Importer) ImportDir(ctx context.Context, dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read packs dir: %w", err)
	}

	var results []Result
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsPackFile(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := i.ImportFile(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			i.logger.Warn("skipping prompt pack", "file", e.Name(), "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
