package main

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/heyprompt/heyprompt-server/internal/auth"
	"github.com/heyprompt/heyprompt-server/internal/config"
	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/kv/memkv"
	"github.com/heyprompt/heyprompt-server/internal/logger"
	"github.com/heyprompt/heyprompt-server/internal/recent"
	"github.com/heyprompt/heyprompt-server/internal/search"
	"github.com/heyprompt/heyprompt-server/internal/service"
	"github.com/heyprompt/heyprompt-server/internal/store/sqlite"
)

// seedPassword is shared by every generated account.
const seedPassword = "heyprompt-demo"

var (
	envFile     string
	userCount   int
	promptCount int
	seed        int64
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill a HeyPrompt database with demo data",
	Long: `Seed creates demo accounts, publishes prompts tagged with the default
categories and models, then rates, comments on, likes and bookmarks them
from the generated accounts. The search index is rebuilt at the end.

Every account uses the password "` + seedPassword + `".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with the server configuration")
	rootCmd.Flags().IntVar(&userCount, "users", 5, "number of accounts to create")
	rootCmd.Flags().IntVar(&promptCount, "prompts", 25, "number of prompts to publish")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 picks one")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9_]+`)

func run(ctx context.Context) error {
	if userCount < 1 || promptCount < 1 {
		return fmt.Errorf("--users and --prompts must be positive")
	}

	cfg, err := config.LoadFromEnv(envFile)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: slog.LevelInfo, Environment: cfg.App.Environment})

	st, err := sqlite.Open(cfg.SQLitePath(), log.Logger)
	if err != nil {
		return err
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: cfg.SearchPath(), Logger: log.Logger})
	if err != nil {
		return err
	}
	defer index.Close()

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	if err != nil {
		return err
	}

	sessions := service.NewSessionService(st, tokens, log.Logger)
	authSvc := service.NewAuthService(st, tokens, sessions, nil, log.Logger)
	tagSvc := service.NewTagService(st, log.Logger)
	prompts := service.NewPromptService(st, index, nil, nil, log.Logger)
	searchSvc := service.NewSearchService(prompts, index, recent.New(memkv.New(), log.Logger), nil, log.Logger)
	ratings := service.NewRatingService(st, nil, log.Logger)
	comments := service.NewCommentService(st, nil, log.Logger)

	if _, err := tagSvc.EnsureDefaults(ctx); err != nil {
		return err
	}
	tags, err := tagSvc.ListTags(ctx)
	if err != nil {
		return err
	}

	faker := gofakeit.New(seed)

	userIDs := make([]string, 0, userCount)
	for n := range userCount {
		username := nonSlug.ReplaceAllString(strings.ToLower(faker.Username()), "")
		if len(username) < 3 {
			username = "user"
		}
		username = fmt.Sprintf("%s_%d", truncate(username, 24), n)

		res, err := authSvc.Signup(ctx, service.SignupRequest{
			Email:    username + "@example.com",
			Password: seedPassword,
			Username: username,
		}, service.ClientInfo{UserAgent: "heyprompt-seed"})
		if err != nil {
			return fmt.Errorf("create %s: %w", username, err)
		}
		userIDs = append(userIDs, res.User.ID)
		log.Info("User created", "username", username)
	}

	usages := []string{string(domain.TokenUsageLow), string(domain.TokenUsageMedium), string(domain.TokenUsageHigh)}
	emojis := []string{"✍️", "🧠", "🚀", "📊", "🎨", "🔍", "💡", "🛠️"}

	promptIDs := make([]string, 0, promptCount)
	for range promptCount {
		author := userIDs[faker.Number(0, len(userIDs)-1)]
		topic := faker.BuzzWord() + " " + faker.Noun()

		summary, err := prompts.SubmitPrompt(ctx, author, service.SubmitPromptRequest{
			Title:           truncate(strings.ToUpper(topic[:1])+topic[1:]+" helper", 120),
			Description:     faker.Sentence(12),
			Content:         fmt.Sprintf("Act as a %s. %s Focus on {{%s}}.", faker.JobTitle(), faker.Sentence(20), faker.Noun()),
			TokenUsage:      faker.RandomString(usages),
			Emoji:           faker.RandomString(emojis),
			BackgroundColor: faker.HexColor(),
			CategoryIDs:     pickTags(faker, tags.Categories, 2),
			ModelIDs:        pickTags(faker, tags.AIModels, 2),
			Publish:         true,
		})
		if err != nil {
			return fmt.Errorf("submit prompt: %w", err)
		}
		promptIDs = append(promptIDs, summary.ID)
	}
	log.Info("Prompts published", "count", len(promptIDs))

	var rated, commented, toggled int
	for _, userID := range userIDs {
		for _, promptID := range promptIDs {
			if faker.Number(1, 3) == 1 {
				if _, err := ratings.Rate(ctx, userID, promptID, faker.Number(domain.MinRatingValue, domain.MaxRatingValue)); err != nil {
					return err
				}
				rated++
			}
			if faker.Number(1, 6) == 1 {
				if _, err := comments.Create(ctx, userID, promptID, faker.Sentence(faker.Number(4, 18))); err != nil {
					return err
				}
				commented++
			}
			for _, kind := range []domain.ActionKind{domain.ActionLike, domain.ActionBookmark} {
				if !faker.Bool() {
					continue
				}
				if _, err := st.ToggleInteraction(ctx, userID, promptID, kind); err != nil {
					return err
				}
				toggled++
			}
		}
	}
	log.Info("Activity generated", "ratings", rated, "comments", commented, "toggles", toggled)

	n, err := searchSvc.Reindex(ctx)
	if err != nil {
		return err
	}
	log.Info("Seed complete", "indexed", n, "password", seedPassword)
	return nil
}

func pickTags(faker *gofakeit.Faker, tags []domain.Tag, limit int) []string {
	if len(tags) == 0 {
		return nil
	}
	n := faker.Number(1, min(limit, len(tags)))
	ids := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(ids) < n {
		t := tags[faker.Number(0, len(tags)-1)]
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
	}
	return ids
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
