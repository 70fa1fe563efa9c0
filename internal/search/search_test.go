package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyprompt/heyprompt-server/internal/domain"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	index, err := NewSearchIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func fixtureDocs() []*PromptDocument {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []*PromptDocument{
		{
			ID: "prompt-email", Title: "Cold Email Writer",
			Description: "Draft outreach emails that get replies",
			Content:     "You are an expert copywriter...",
			Categories:  []string{"Marketers"}, AIModels: []string{"GPT-4"},
			TokenUsage: "low", CreatedAt: base.UnixMilli(),
		},
		{
			ID: "prompt-review", Title: "Code Review Assistant",
			Description: "Reviews pull requests for bugs",
			Content:     "Act as a senior engineer reviewing an email parser",
			Categories:  []string{"Developers"}, AIModels: []string{"Claude"},
			TokenUsage: "high", CreatedAt: base.Add(time.Hour).UnixMilli(),
		},
		{
			ID: "prompt-haiku", Title: "Haiku Generator",
			Description: "Seasonal poems",
			Categories:  []string{"Writers"}, AIModels: []string{"Claude", "Gemini"},
			TokenUsage: "low", CreatedAt: base.Add(2 * time.Hour).UnixMilli(),
		},
	}
}

func TestNewSearchIndex_Empty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestIndexDocuments_AndDelete(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	require.NoError(t, index.DeleteDocument("prompt-haiku"))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestSearch_TitleOutranksContent(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	result, err := index.Search(context.Background(), SearchParams{Query: "email"})
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	assert.Equal(t, []string{"prompt-email", "prompt-review"}, result.IDs())
	assert.Equal(t, "Cold Email Writer", result.Hits[0].Title)
}

func TestSearch_Stemming(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	result, err := index.Search(context.Background(), SearchParams{Query: "reviewing"})
	require.NoError(t, err)
	assert.Contains(t, result.IDs(), "prompt-review")
}

func TestSearch_MatchesTagName(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	result, err := index.Search(context.Background(), SearchParams{Query: "Claude"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prompt-review", "prompt-haiku"}, result.IDs())
}

func TestSearch_Filters(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	result, err := index.Search(context.Background(), SearchParams{
		AIModels:   []string{"Claude"},
		TokenUsage: []string{"low"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"prompt-haiku"}, result.IDs())
}

func TestSearch_Facets(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	result, err := index.Search(context.Background(), SearchParams{IncludeFacets: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), result.Total)

	models := map[string]int{}
	for _, f := range result.Facets.AIModels {
		models[f.Value] = f.Count
	}
	assert.Equal(t, map[string]int{"Claude": 2, "GPT-4": 1, "Gemini": 1}, models)
}

func TestReplace(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))

	require.NoError(t, index.Replace(fixtureDocs()[:1]))
	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNewSearchIndex_RebuildsOnVersionChange(t *testing.T) {
	dir := t.TempDir()
	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexDocuments(fixtureDocs()))
	require.NoError(t, index.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "search.version"), []byte("old"), 0o644))

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count, "an outdated mapping starts from an empty index")

	version, err := os.ReadFile(filepath.Join(dir, "search.version"))
	require.NoError(t, err)
	assert.Equal(t, mappingVersion, string(version))
}

func TestDocumentFromSummary(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := DocumentFromSummary(domain.PromptSummary{
		ID: "prompt-1", Title: "T", Author: domain.Author{Username: "ada"},
		Categories: []string{"Writers"}, TokenUsage: domain.TokenUsageMedium, CreatedAt: created,
	})

	m := doc.ToMap()
	assert.Equal(t, "prompt-1", m["id"])
	assert.Equal(t, "ada", m["author"])
	assert.Equal(t, []string{"Writers"}, m["categories"])
	assert.Equal(t, "medium", m["token_usage"])
	assert.Equal(t, created.UnixMilli(), m["created_at"])
	assert.NotContains(t, m, "ai_models")
}

func TestReplace_KeepsServingAndCleansStaging(t *testing.T) {
	dir := t.TempDir()
	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	require.NoError(t, index.IndexDocuments(fixtureDocs()[:2]))
	require.NoError(t, index.Replace(fixtureDocs()))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	_, err = os.Stat(filepath.Join(dir, stagingDir))
	assert.True(t, os.IsNotExist(err), "staging directory is promoted")

	require.NoError(t, index.Rebuild())
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}
