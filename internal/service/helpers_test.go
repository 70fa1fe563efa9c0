package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/analytics"
	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/kv/memkv"
	"github.com/heyprompt/heyprompt-server/internal/notify"
	"github.com/heyprompt/heyprompt-server/internal/recent"
	"github.com/heyprompt/heyprompt-server/internal/search"
	"github.com/heyprompt/heyprompt-server/internal/store/sqlite"
)

// testEnv wires every service against temporary storage.
type testEnv struct {
	store    *sqlite.Store
	kv       *memkv.Store
	index    *search.SearchIndex
	notifier *notify.Recorder
	events   *analytics.Recorder
	tokens   *auth.TokenService

	sessions *SessionService
	auth     *AuthService
	tags     *TagService
	prompts  *PromptService
	search   *SearchService
	comments *CommentService
	ratings  *RatingService
	library  *LibraryService
	profiles *ProfileService
	admin    *AdminService
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

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
	notifier := &notify.Recorder{}
	events := analytics.NewRecorder(kvStore, nil, logger)

	env := &testEnv{
		store:    st,
		kv:       kvStore,
		index:    index,
		notifier: notifier,
		events:   events,
		tokens:   tokens,
	}
	env.sessions = NewSessionService(st, tokens, logger)
	env.auth = NewAuthService(st, tokens, env.sessions, events, logger)
	env.tags = NewTagService(st, logger)
	env.prompts = NewPromptService(st, index, nil, events, logger)
	env.search = NewSearchService(env.prompts, index, recent.New(kvStore, logger), events, logger)
	env.comments = NewCommentService(st, notifier, logger)
	env.ratings = NewRatingService(st, notifier, logger)
	env.library = NewLibraryService(st, env.prompts, logger)
	env.profiles = NewProfileService(st, env.prompts, logger)
	env.admin = NewAdminService(st, events, notifier, logger)

	_, err = env.tags.EnsureDefaults(context.Background())
	require.NoError(t, err)
	return env
}

// signup creates a user through the auth service.
func (e *testEnv) signup(t *testing.T, username string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Signup(context.Background(), SignupRequest{
		Email:    username + "@example.com",
		Password: "correct horse battery",
		Username: username,
	}, ClientInfo{IPAddress: "127.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return resp
}

// tagID returns the id of a default tag.
func (e *testEnv) tagID(t *testing.T, tagType domain.TagType, name string) string {
	t.Helper()
	tag, _, err := e.store.FindOrCreateTag(context.Background(), tagType, name)
	require.NoError(t, err)
	return tag.ID
}

// submit publishes a prompt authored by userID.
func (e *testEnv) submit(t *testing.T, userID, title string, categories, models []string) *domain.PromptSummary {
	t.Helper()
	req := SubmitPromptRequest{
		Title:       title,
		Description: "About " + title,
		Content:     "Write " + title,
		TokenUsage:  "medium",
		Publish:     true,
	}
	for _, c := range categories {
		req.CategoryIDs = append(req.CategoryIDs, e.tagID(t, domain.TagTypeCategory, c))
	}
	for _, m := range models {
		req.ModelIDs = append(req.ModelIDs, e.tagID(t, domain.TagTypeAIModel, m))
	}
	p, err := e.prompts.SubmitPrompt(context.Background(), userID, req)
	require.NoError(t, err)
	return p
}
