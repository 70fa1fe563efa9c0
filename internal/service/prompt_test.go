package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
)

func TestListTags_GroupedInOrder(t *testing.T) {
	env := setupTest(t)

	tags, err := env.tags.ListTags(context.Background())
	require.NoError(t, err)

	var categories, models []string
	for _, tag := range tags.Categories {
		categories = append(categories, tag.Name)
	}
	for _, tag := range tags.AIModels {
		models = append(models, tag.Name)
	}
	assert.ElementsMatch(t, domain.DefaultCategories, categories)
	assert.ElementsMatch(t, domain.DefaultAIModels, models)

	created, err := env.tags.EnsureDefaults(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestSubmitPrompt_Published(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")

	p := env.submit(t, ada.User.ID, "Code review checklist", []string{"Developers"}, []string{"Claude"})

	assert.Equal(t, "ada", p.Author.Username)
	assert.Equal(t, []string{"Developers"}, p.Categories)
	assert.Equal(t, []string{"Claude"}, p.AIModels)
	assert.Equal(t, domain.TokenUsageMedium, p.TokenUsage)

	rows, err := env.prompts.ListSummaries(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, p.ID, rows[0].ID)

	n, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestSubmitPrompt_DraftHiddenFromOthers(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")

	draft, err := env.prompts.SubmitPrompt(ctx, ada.User.ID, SubmitPromptRequest{
		Title:       "Unfinished idea",
		Description: "Draft",
		Content:     "TBD",
		TokenUsage:  "low",
	})
	require.NoError(t, err)

	rows, err := env.prompts.ListSummaries(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = env.prompts.GetPrompt(ctx, draft.ID, ada.User.ID, false)
	assert.NoError(t, err)
	_, err = env.prompts.GetPrompt(ctx, draft.ID, grace.User.ID, false)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = env.prompts.GetPrompt(ctx, draft.ID, grace.User.ID, true)
	assert.NoError(t, err)

	n, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, n, "drafts are not indexed")
}

func TestSubmitPrompt_HTMLDescription(t *testing.T) {
	env := setupTest(t)
	ada := env.signup(t, "ada")

	p, err := env.prompts.SubmitPrompt(context.Background(), ada.User.ID, SubmitPromptRequest{
		Title:       "Formatted",
		Description: "<p>Use <strong>bold</strong> words</p>",
		Content:     "content",
		TokenUsage:  "High",
		Publish:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Use **bold** words", p.Description)
	assert.Equal(t, domain.TokenUsageHigh, p.TokenUsage)
}

func TestSubmitPrompt_Validation(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	claude := env.tagID(t, domain.TagTypeAIModel, "Claude")

	tests := []struct {
		name string
		req  SubmitPromptRequest
	}{
		{"missing title", SubmitPromptRequest{Description: "d", Content: "c", TokenUsage: "low"}},
		{"bad token usage", SubmitPromptRequest{Title: "Title", Description: "d", Content: "c", TokenUsage: "huge"}},
		{"bad color", SubmitPromptRequest{Title: "Title", Description: "d", Content: "c", TokenUsage: "low", BackgroundColor: "red"}},
		{"model id as category", SubmitPromptRequest{Title: "Title", Description: "d", Content: "c", TokenUsage: "low", CategoryIDs: []string{claude}}},
		{"unknown model", SubmitPromptRequest{Title: "Title", Description: "d", Content: "c", TokenUsage: "low", ModelIDs: []string{"tag-missing"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.prompts.SubmitPrompt(ctx, ada.User.ID, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestGetPrompt_CountsViews(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	p := env.submit(t, ada.User.ID, "Viewed", nil, nil)

	got, err := env.prompts.GetPrompt(ctx, p.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	got, err = env.prompts.GetPrompt(ctx, p.ID, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Views)

	_, err = env.prompts.GetPrompt(ctx, "prompt-missing", "", false)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListSummaries_AggregatesAndViewerFlags(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")
	p := env.submit(t, ada.User.ID, "Popular", []string{"Writers"}, nil)

	_, err := env.store.ToggleInteraction(ctx, grace.User.ID, p.ID, domain.ActionLike)
	require.NoError(t, err)
	_, err = env.store.ToggleInteraction(ctx, grace.User.ID, p.ID, domain.ActionBookmark)
	require.NoError(t, err)
	require.NoError(t, env.store.IncrementCopyCount(ctx, p.ID))
	_, err = env.ratings.Rate(ctx, grace.User.ID, p.ID, 4)
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, grace.User.ID, p.ID, "Nice one")
	require.NoError(t, err)

	rows, err := env.prompts.ListSummaries(ctx, grace.User.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got := rows[0]
	assert.Equal(t, 1, got.Likes)
	assert.Equal(t, 1, got.Saves)
	assert.Equal(t, 1, got.Copies)
	assert.Equal(t, 1, got.Comments)
	assert.Equal(t, 1, got.ReviewCount)
	assert.InDelta(t, 4.0, got.Rating, 0.001)
	assert.Equal(t, 3, got.Popularity())
	assert.True(t, got.IsLiked)
	assert.True(t, got.IsBookmarked)

	rows, err = env.prompts.ListSummaries(ctx, ada.User.ID)
	require.NoError(t, err)
	assert.False(t, rows[0].IsLiked)
	assert.False(t, rows[0].IsBookmarked)
}

func TestBrowse_FiltersAndSorts(t *testing.T) {
	env := setupTest(t)
	ctx := context.Background()
	ada := env.signup(t, "ada")
	grace := env.signup(t, "grace")

	email := env.submit(t, ada.User.ID, "Email writer", []string{"Marketers"}, []string{"GPT-4"})
	review := env.submit(t, ada.User.ID, "Code reviewer", []string{"Developers"}, []string{"Claude"})
	_, err := env.store.ToggleInteraction(ctx, grace.User.ID, review.ID, domain.ActionLike)
	require.NoError(t, err)

	rows, err := env.prompts.Browse(ctx, "", BrowseQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, review.ID, rows[0].ID, "popularity is the default sort")

	rows, err = env.prompts.Browse(ctx, "", BrowseQuery{Filters: domain.FilterState{AIModels: []string{"GPT-4"}}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, email.ID, rows[0].ID)

	rows, err = env.prompts.Browse(ctx, "", BrowseQuery{Query: "marketers"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, email.ID, rows[0].ID)
}
