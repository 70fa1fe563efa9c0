package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/browse"
	"github.com/heyprompt/heyprompt-server/internal/color"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/id"
	"github.com/heyprompt/heyprompt-server/internal/search"
	"github.com/heyprompt/heyprompt-server/internal/sse"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// PromptService builds prompt summaries and handles submissions.
type PromptService struct {
	store  store.Store
	index  *search.SearchIndex
	sse    *sse.Manager
	events *analytics.Recorder
	logger *slog.Logger
	now    func() time.Time
}

// NewPromptService creates a prompt service. index, sseManager and events may be nil.
func NewPromptService(
	store store.Store,
	index *search.SearchIndex,
	sseManager *sse.Manager,
	events *analytics.Recorder,
	logger *slog.Logger,
) *PromptService {
	return &PromptService{
		store:  store,
		index:  index,
		sse:    sseManager,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// BrowseQuery is the browse page state.
type BrowseQuery struct {
	Query   string
	Filters domain.FilterState
	Sort    domain.SortKey
}

// ListSummaries returns the summaries of every published prompt, newest first,
// with the viewer's like and bookmark flags. viewerID may be empty.
func (s *PromptService) ListSummaries(ctx context.Context, viewerID string) ([]domain.PromptSummary, error) {
	return s.summaries(ctx, store.PromptFilter{PublishedOnly: true}, viewerID)
}

// SummariesByIDs returns published summaries for ids, in the order of ids.
// Unknown or unpublished ids are skipped.
func (s *PromptService) SummariesByIDs(ctx context.Context, ids []string, viewerID string) ([]domain.PromptSummary, error) {
	rows, err := s.summaries(ctx, store.PromptFilter{PublishedOnly: true, IDs: ids}, viewerID)
	if err != nil {
		return nil, err
	}
	return orderByIDs(rows, ids), nil
}

// Browse filters and sorts the published prompts.
func (s *PromptService) Browse(ctx context.Context, viewerID string, q BrowseQuery) ([]domain.PromptSummary, error) {
	rows, err := s.ListSummaries(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return browse.DeriveWithOptions(rows, q.Filters, q.Query, q.Sort, browse.Options{Now: s.now()}), nil
}

// GetPrompt returns one prompt's summary and counts the view.
// Drafts are visible to their author and to admins only.
func (s *PromptService) GetPrompt(ctx context.Context, promptID, viewerID string, viewerIsAdmin bool) (*domain.PromptSummary, error) {
	p, err := s.store.GetPrompt(ctx, promptID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("prompt %s not found", promptID)
		}
		return nil, fmt.Errorf("get prompt: %w", err)
	}
	if !p.IsPublished && !viewerIsAdmin && (viewerID == "" || p.CreatedBy != viewerID) {
		return nil, domainerrors.NotFoundf("prompt %s not found", promptID)
	}

	rows, err := s.summaries(ctx, store.PromptFilter{IDs: []string{promptID}}, viewerID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domainerrors.NotFoundf("prompt %s not found", promptID)
	}
	summary := rows[0]

	if err := s.store.IncrementViewCount(ctx, promptID); err != nil {
		s.logger.Warn("failed to count prompt view", "prompt_id", promptID, "error", err)
	} else {
		summary.Views++
	}

	if s.events != nil {
		s.events.Track(ctx, domain.AnalyticsEvent{
			Name:       domain.EventPromptViewed,
			UserID:     viewerID,
			Properties: map[string]any{"prompt_id": promptID},
		})
	}
	return &summary, nil
}

// SubmitPromptRequest is a new prompt from a signed-in user.
type SubmitPromptRequest struct {
	Title           string   `json:"title" validate:"required,min=3,max=120"`
	Description     string   `json:"description" validate:"required,max=2000"`
	Content         string   `json:"prompt_content" validate:"required,max=20000"`
	TokenUsage      string   `json:"token_usage" validate:"required,token_usage"`
	Emoji           string   `json:"emoji,omitempty" validate:"max=16"`
	BackgroundColor string   `json:"background_color,omitempty" validate:"hexcolor_or_empty"`
	CategoryIDs     []string `json:"category_ids,omitempty" validate:"max=10,dive,required"`
	ModelIDs        []string `json:"model_ids,omitempty" validate:"max=10,dive,required"`
	Publish         bool     `json:"publish,omitempty"`
}

// SubmitPrompt validates and stores a prompt. Published prompts are indexed
// and announced on the event stream.
func (s *PromptService) SubmitPrompt(ctx context.Context, userID string, req SubmitPromptRequest) (*domain.PromptSummary, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = htmlToMarkdown(strings.TrimSpace(req.Description))
	req.Content = strings.TrimSpace(req.Content)
	req.TokenUsage = strings.ToLower(strings.TrimSpace(req.TokenUsage))
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	idx := newTagIndex(tags)
	if err := idx.checkTagIDs("category_ids", req.CategoryIDs, domain.TagTypeCategory); err != nil {
		return nil, err
	}
	if err := idx.checkTagIDs("model_ids", req.ModelIDs, domain.TagTypeAIModel); err != nil {
		return nil, err
	}

	promptID, err := id.Generate("prompt")
	if err != nil {
		return nil, fmt.Errorf("generate prompt ID: %w", err)
	}

	now := s.now()
	p := &domain.Prompt{
		Entity:          domain.Entity{ID: promptID, CreatedAt: now, UpdatedAt: now},
		Title:           req.Title,
		Description:     req.Description,
		Content:         req.Content,
		TokenUsage:      domain.TokenUsage(req.TokenUsage),
		Emoji:           req.Emoji,
		BackgroundColor: color.Or(req.BackgroundColor, promptID),
		IsPublished:     req.Publish,
		CreatedBy:       userID,
		Version:         1,
	}

	tagIDs := slices.Concat(req.CategoryIDs, req.ModelIDs)
	slices.Sort(tagIDs)
	tagIDs = slices.Compact(tagIDs)
	if err := s.store.CreatePrompt(ctx, p, tagIDs); err != nil {
		return nil, fmt.Errorf("create prompt: %w", err)
	}

	rows, err := s.summaries(ctx, store.PromptFilter{IDs: []string{promptID}}, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domainerrors.Internal("submitted prompt vanished")
	}
	summary := rows[0]

	if p.IsPublished {
		if s.index != nil {
			if err := s.index.IndexDocument(search.DocumentFromSummary(summary)); err != nil {
				s.logger.Warn("failed to index prompt", "prompt_id", promptID, "error", err)
			}
		}
		if s.sse != nil {
			s.sse.Emit(sse.NewPromptCreatedEvent(promptID, p.Title))
		}
	}
	if s.events != nil {
		s.events.Track(ctx, domain.AnalyticsEvent{
			Name:       domain.EventPromptSubmitted,
			UserID:     userID,
			Properties: map[string]any{"prompt_id": promptID, "published": p.IsPublished},
		})
	}

	s.logger.Info("prompt submitted", "prompt_id", promptID, "user_id", userID, "published", p.IsPublished)
	return &summary, nil
}

// summaries loads the prompts matching filter and everything a summary needs,
// in parallel.
func (s *PromptService) summaries(ctx context.Context, filter store.PromptFilter, viewerID string) ([]domain.PromptSummary, error) {
	var (
		prompts  []*domain.Prompt
		tags     []domain.Tag
		links    map[string][]string
		counts   map[string]store.InteractionCounts
		ratings  map[string]store.RatingAggregate
		comments map[string]int
		flags    map[string]store.ViewerFlags
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		prompts, err = s.store.ListPrompts(gctx, filter)
		return wrap(err, "list prompts")
	})
	g.Go(func() (err error) {
		tags, err = s.store.ListTags(gctx)
		return wrap(err, "list tags")
	})
	g.Go(func() (err error) {
		links, err = s.store.ListPromptTagLinks(gctx)
		return wrap(err, "list tag links")
	})
	g.Go(func() (err error) {
		counts, err = s.store.CountInteractions(gctx)
		return wrap(err, "count interactions")
	})
	g.Go(func() (err error) {
		ratings, err = s.store.RatingAggregates(gctx)
		return wrap(err, "rating aggregates")
	})
	g.Go(func() (err error) {
		comments, err = s.store.CommentCounts(gctx)
		return wrap(err, "comment counts")
	})
	if viewerID != "" {
		g.Go(func() (err error) {
			flags, err = s.store.ViewerFlags(gctx, viewerID)
			return wrap(err, "viewer flags")
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	authorIDs := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if p.CreatedBy != "" {
			authorIDs = append(authorIDs, p.CreatedBy)
		}
	}
	slices.Sort(authorIDs)
	authorIDs = slices.Compact(authorIDs)

	profiles := map[string]*domain.Profile{}
	if len(authorIDs) > 0 {
		var err error
		profiles, err = s.store.GetProfilesByIDs(ctx, authorIDs)
		if err != nil {
			return nil, fmt.Errorf("load authors: %w", err)
		}
	}

	idx := newTagIndex(tags)
	out := make([]domain.PromptSummary, 0, len(prompts))
	for _, p := range prompts {
		categories, models := idx.names(tags, links[p.ID])
		c := counts[p.ID]
		r := ratings[p.ID]
		f := flags[p.ID]
		out = append(out, domain.PromptSummary{
			ID:              p.ID,
			Title:           p.Title,
			Description:     p.Description,
			Content:         p.Content,
			Emoji:           p.Emoji,
			BackgroundColor: p.BackgroundColor,
			TokenUsage:      p.TokenUsage,
			Author:          domain.Author{ID: p.CreatedBy, Username: profiles[p.CreatedBy].DisplayName()},
			CreatedAt:       p.CreatedAt,
			Categories:      categories,
			AIModels:        models,
			Rating:          r.Average,
			ReviewCount:     r.Count,
			Saves:           c.Bookmarks,
			Copies:          p.CopyCount,
			Likes:           c.Likes,
			Comments:        comments[p.ID],
			Views:           p.ViewCount,
			IsLiked:         f.Liked,
			IsBookmarked:    f.Bookmarked,
		})
	}
	return out, nil
}

// orderByIDs returns the rows whose id is in ids, in the order of ids.
func orderByIDs(rows []domain.PromptSummary, ids []string) []domain.PromptSummary {
	byID := make(map[string]domain.PromptSummary, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]domain.PromptSummary, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
			delete(byID, id)
		}
	}
	return out
}

func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
