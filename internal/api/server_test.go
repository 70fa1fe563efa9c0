package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/interaction"
	"github.com/heyprompt/heyprompt-server/internal/kv/memkv"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/quota"
	"github.com/heyprompt/heyprompt-server/internal/recent"
	"github.com/heyprompt/heyprompt-server/internal/search"
	"github.com/heyprompt/heyprompt-server/internal/service"
	"github.com/heyprompt/heyprompt-server/internal/sse"
	"github.com/heyprompt/heyprompt-server/internal/store/sqlite"
)

// testEnvelope decodes the response envelope around a typed payload.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlite.Store
	index *search.SearchIndex
	tags  *service.TagService
}

// setupTestServer wires the full service graph against temporary storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(tmpDir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	key, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	kvStore := memkv.New()
	sseManager := sse.NewManager(logger)
	events := analytics.NewRecorder(kvStore, nil, logger)
	tracker := quota.New(quota.Options{Store: kvStore, DailyLimit: 3, Location: time.UTC, Logger: logger})
	dispatcher := interaction.New(interaction.Options{
		Content:  st,
		Toggles:  st,
		Quota:    tracker,
		Notifier: notify.Discard{},
		Logger:   logger,
		Retry:    interaction.RetryPolicy{Attempts: 1, Delay: time.Millisecond, MaxDelay: time.Millisecond},
	})

	sessions := service.NewSessionService(st, tokens, logger)
	prompts := service.NewPromptService(st, index, sseManager, events, logger)
	services := &Services{
		Auth:        service.NewAuthService(st, tokens, sessions, events, logger),
		Tag:         service.NewTagService(st, logger),
		Prompt:      prompts,
		Search:      service.NewSearchService(prompts, index, recent.New(kvStore, logger), events, logger),
		Interaction: service.NewInteractionService(dispatcher, tracker, sseManager, events, logger),
		Comment:     service.NewCommentService(st, notify.Discard{}, logger),
		Rating:      service.NewRatingService(st, notify.Discard{}, logger),
		Library:     service.NewLibraryService(st, prompts, logger),
		Profile:     service.NewProfileService(st, prompts, logger),
		Admin:       service.NewAdminService(st, events, notify.Discard{}, logger),
		Events:      events,
	}
	_, err = services.Tag.EnsureDefaults(ctx)
	require.NoError(t, err)

	server := NewServer(st, services, sseManager, nil, Options{
		Version:        "test",
		AuthLimit:      RateLimit{PerMinute: 1000, Burst: 1000},
		AnonymousLimit: RateLimit{PerMinute: 1000, Burst: 1000},
	}, logger)
	t.Cleanup(func() { _ = server.Shutdown() })

	return &testServer{
		Server: server,
		api:    humatest.Wrap(t, server.api),
		store:  st,
		index:  index,
		tags:   services.Tag,
	}
}

// decode unmarshals an enveloped response body.
func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

// signup creates an account through the API and returns its access token and user id.
func (ts *testServer) signup(t *testing.T, username string) (token, userID string) {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"email":    username + "@example.com",
		"password": "correct horse battery",
		"username": username,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "signup failed: %s", resp.Body.String())

	env := decode[service.AuthResponse](t, resp.Body.Bytes())
	require.True(t, env.Success)
	return env.Data.AccessToken, env.Data.User.ID
}

// makeAdmin grants admin rights directly in the store.
func (ts *testServer) makeAdmin(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, ts.store.SetUserAdmin(context.Background(), userID, true))
}

// tagID returns the id of a default tag by name.
func (ts *testServer) tagID(t *testing.T, tagType domain.TagType, name string) string {
	t.Helper()
	tag, _, err := ts.store.FindOrCreateTag(context.Background(), tagType, name)
	require.NoError(t, err)
	return tag.ID
}

// submitPrompt publishes a prompt through the API and returns it.
func (ts *testServer) submitPrompt(t *testing.T, token, title string) domain.PromptSummary {
	t.Helper()
	resp := ts.api.Post("/api/v1/prompts", bearer(token), map[string]any{
		"title":          title,
		"description":    "About " + title,
		"prompt_content": "Write " + title,
		"token_usage":    "low",
		"category_ids":   []string{ts.tagID(t, domain.TagTypeCategory, "Writers")},
		"model_ids":      []string{ts.tagID(t, domain.TagTypeAIModel, "Claude")},
		"publish":        true,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "submit failed: %s", resp.Body.String())
	return decode[domain.PromptSummary](t, resp.Body.Bytes()).Data
}

// issueDevice requests an anonymous device id.
func (ts *testServer) issueDevice(t *testing.T) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/anonymous")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[AnonymousIDResponse](t, resp.Body.Bytes()).Data.DeviceID
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func device(id string) string {
	return HeaderAnonymousID + ": " + id
}
