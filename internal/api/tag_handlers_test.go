package api

import (
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

func TestListTags(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/tags")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Header().Get("Cache-Control"), "public")

	env := decode[domain.TagsByType](t, resp.Body.Bytes())
	require.NotEmpty(t, env.Data.Categories)
	require.NotEmpty(t, env.Data.AIModels)
	for _, tag := range env.Data.Categories {
		assert.Equal(t, domain.TagTypeCategory, tag.Type)
	}
	for _, tag := range env.Data.AIModels {
		assert.Equal(t, domain.TagTypeAIModel, tag.Type)
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/health")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
	assert.Contains(t, env.Data.Components, "sse")
}

func TestHealthCheck_SearchTracksPublishedPrompts(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signup(t, "ada")
	ts.submitPrompt(t, token, "Summarize meeting notes")

	env := decode[HealthResponse](t, ts.api.Get("/api/v1/health").Body.Bytes())
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
	assert.Equal(t, "1 prompts indexed", env.Data.Components["search"].Message)

	require.NoError(t, ts.index.Rebuild())

	env = decode[HealthResponse](t, ts.api.Get("/api/v1/health").Body.Bytes())
	assert.Equal(t, "degraded", env.Data.Status)
	assert.Equal(t, "degraded", env.Data.Components["search"].Status)
	assert.Equal(t, "0 of 1 prompts indexed", env.Data.Components["search"].Message)
}

func TestAnonymousDevice(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/anonymous")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	env := decode[AnonymousIDResponse](t, resp.Body.Bytes())
	assert.NotEmpty(t, env.Data.DeviceID)
	assert.Equal(t, 3, env.Data.Quota.Remaining)

	resp = ts.api.Get("/api/v1/anonymous/quota", "X-Anonymous-ID: "+env.Data.DeviceID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))

	resp = ts.api.Get("/api/v1/anonymous/quota?anonymous_id=" + env.Data.DeviceID)
	assert.Equal(t, http.StatusOK, resp.Code, "the device id may come from the query string")

	resp = ts.api.Get("/api/v1/anonymous/quota")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupTestServer(t)

	limited := NewServer(ts.store, ts.services, nil, nil, Options{AuthLimit: RateLimit{PerMinute: 1, Burst: 1}}, ts.logger)
	t.Cleanup(func() { _ = limited.Shutdown() })
	api := humatest.Wrap(t, limited.api)

	body := map[string]any{"email": "nobody@example.com", "password": "whatever password"}
	assert.Equal(t, http.StatusUnauthorized, api.Post("/api/v1/auth/login", body).Code)

	resp := api.Post("/api/v1/auth/login", body)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "60", resp.Header().Get("Retry-After"))

	env := decode[any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)
}
