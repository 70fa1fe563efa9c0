package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

func titles(prompts []domain.PromptSummary) []string {
	out := make([]string, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, p.Title)
	}
	return out
}

func TestBrowse_Filters(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signup(t, "author")
	ts.submitPrompt(t, token, "Cold email opener")
	ts.submitPrompt(t, token, "Sprint retrospective")

	resp := ts.api.Get("/api/v1/prompts")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[PromptListResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, 2, env.Data.Total)

	resp = ts.api.Get("/api/v1/prompts?q=" + url.QueryEscape("cold EMAIL"))
	env = decode[PromptListResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"Cold email opener"}, titles(env.Data.Prompts))

	resp = ts.api.Get("/api/v1/prompts?categories=Writers&models=Claude&token_usage=low")
	env = decode[PromptListResponse](t, resp.Body.Bytes())
	assert.Equal(t, 2, env.Data.Total)

	resp = ts.api.Get("/api/v1/prompts?token_usage=high")
	env = decode[PromptListResponse](t, resp.Body.Bytes())
	assert.Zero(t, env.Data.Total)
	assert.NotNil(t, env.Data.Prompts, "empty lists encode as []")

	resp = ts.api.Get("/api/v1/prompts?min_rating=4")
	env = decode[PromptListResponse](t, resp.Body.Bytes())
	assert.Zero(t, env.Data.Total, "unrated prompts have rating 0")

	resp = ts.api.Get("/api/v1/prompts?token_usage=enormous")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetPrompt_DraftVisibility(t *testing.T) {
	ts := setupTestServer(t)
	authorToken, _ := ts.signup(t, "author")
	otherToken, otherID := ts.signup(t, "other")

	resp := ts.api.Post("/api/v1/prompts", bearer(authorToken), map[string]any{
		"title":          "Unfinished idea",
		"description":    "Still a draft",
		"prompt_content": "Draft text",
		"token_usage":    "medium",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	draft := decode[domain.PromptSummary](t, resp.Body.Bytes()).Data
	path := "/api/v1/prompts/" + draft.ID

	assert.Equal(t, http.StatusOK, ts.api.Get(path, bearer(authorToken)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(path).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Get(path, bearer(otherToken)).Code)

	ts.makeAdmin(t, otherID)
	resp = ts.api.Post("/api/v1/auth/login", map[string]any{"email": "other@example.com", "password": "correct horse battery"})
	adminToken := decode[service.AuthResponse](t, resp.Body.Bytes()).Data.AccessToken
	assert.Equal(t, http.StatusOK, ts.api.Get(path, bearer(adminToken)).Code)

	env := decode[PromptListResponse](t, ts.api.Get("/api/v1/prompts").Body.Bytes())
	assert.Zero(t, env.Data.Total, "drafts are never listed")
}

func TestSubmitPrompt_Validation(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signup(t, "author")

	body := map[string]any{
		"title":          "Ok title",
		"description":    "desc",
		"prompt_content": "content",
		"token_usage":    "low",
	}
	assert.Equal(t, http.StatusUnauthorized, ts.api.Post("/api/v1/prompts", body).Code)

	bad := map[string]any{
		"title":          "x",
		"description":    "desc",
		"prompt_content": "content",
		"token_usage":    "low",
	}
	resp := ts.api.Post("/api/v1/prompts", bearer(token), bad)
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	bad["title"] = "Long enough"
	bad["token_usage"] = "infinite"
	resp = ts.api.Post("/api/v1/prompts", bearer(token), bad)
	assert.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestSearch_RecordsRecentSearches(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signup(t, "author")
	ts.submitPrompt(t, token, "Cold email opener")
	ts.submitPrompt(t, token, "Quarterly report")

	resp := ts.api.Get("/api/v1/search?q=email", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[service.SearchResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"Cold email opener"}, titles(env.Data.Results))
	assert.Equal(t, []string{"email"}, env.Data.Recent)

	ts.api.Get("/api/v1/search?q=report", bearer(token))

	resp = ts.api.Get("/api/v1/search/recent", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	recent := decode[RecentSearchesResponse](t, resp.Body.Bytes())
	assert.Equal(t, []string{"report", "email"}, recent.Data.Searches)

	resp = ts.api.Delete("/api/v1/search/recent/email", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"report"}, decode[RecentSearchesResponse](t, resp.Body.Bytes()).Data.Searches)

	resp = ts.api.Delete("/api/v1/search/recent", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decode[RecentSearchesResponse](t, resp.Body.Bytes()).Data.Searches)
}

func TestSearch_EmptyQueryBrowses(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signup(t, "author")
	ts.submitPrompt(t, token, "Cold email opener")

	resp := ts.api.Get("/api/v1/search")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[service.SearchResponse](t, resp.Body.Bytes())
	assert.Equal(t, 1, env.Data.Total)
}

func TestFilterParams(t *testing.T) {
	fs, err := FilterParams{
		Categories: []string{" Writers ", ""},
		TokenUsage: []string{"LOW", "medium"},
		MinRating:  3.5,
		DateRange:  "week",
	}.filterState()
	require.NoError(t, err)
	assert.Equal(t, []string{"Writers"}, fs.Categories)
	assert.Equal(t, []domain.TokenUsage{domain.TokenUsageLow, domain.TokenUsageMedium}, fs.TokenUsage)
	assert.Equal(t, 3.5, fs.MinRating)
	assert.Equal(t, domain.DateRangeWeek, fs.DateRange)

	_, err = FilterParams{TokenUsage: []string{"huge"}}.filterState()
	assert.Error(t, err)

	assert.Equal(t, domain.SortKey(""), FilterParams{}.sortKey())
}
