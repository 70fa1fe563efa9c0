package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// TagService exposes the category and AI model vocabularies.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{store: store, logger: logger}
}

// ListTags returns every tag in display order, grouped by type.
func (s *TagService) ListTags(ctx context.Context) (domain.TagsByType, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return domain.TagsByType{}, fmt.Errorf("list tags: %w", err)
	}
	return domain.GroupTags(tags), nil
}

// EnsureDefaults creates the default vocabularies when missing.
// Existing tags are left untouched, so running it on every boot is safe.
func (s *TagService) EnsureDefaults(ctx context.Context) (int, error) {
	created := 0
	for tagType, names := range map[domain.TagType][]string{
		domain.TagTypeCategory: domain.DefaultCategories,
		domain.TagTypeAIModel:  domain.DefaultAIModels,
	} {
		for _, name := range names {
			_, isNew, err := s.store.FindOrCreateTag(ctx, tagType, name)
			if err != nil {
				return created, fmt.Errorf("ensure tag %q: %w", name, err)
			}
			if isNew {
				created++
			}
		}
	}
	if created > 0 {
		s.logger.Info("default tags created", "count", created)
	}
	return created, nil
}

// tagIndex maps tag ids to tags.
type tagIndex map[string]domain.Tag

func newTagIndex(tags []domain.Tag) tagIndex {
	idx := make(tagIndex, len(tags))
	for _, t := range tags {
		idx[t.ID] = t
	}
	return idx
}

// names splits the linked tags of one prompt into category and model names,
// in vocabulary order.
func (idx tagIndex) names(order []domain.Tag, linked []string) (categories, models []string) {
	categories, models = []string{}, []string{}
	if len(linked) == 0 {
		return categories, models
	}
	set := make(map[string]struct{}, len(linked))
	for _, id := range linked {
		set[id] = struct{}{}
	}
	for _, t := range order {
		if _, ok := set[t.ID]; !ok {
			continue
		}
		switch t.Type {
		case domain.TagTypeCategory:
			categories = append(categories, t.Name)
		case domain.TagTypeAIModel:
			models = append(models, t.Name)
		}
	}
	return categories, models
}

// checkTagIDs rejects ids that are unknown or of the wrong type.
func (idx tagIndex) checkTagIDs(field string, ids []string, want domain.TagType) error {
	for _, id := range ids {
		t, ok := idx[id]
		if !ok || t.Type != want {
			return domainerrors.ValidationWithDetails("validation failed", map[string]string{
				field: fmt.Sprintf("unknown %s tag %q", want, id),
			})
		}
	}
	return nil
}
