package validation_test

import (
	"net/http"
	"strings"
	"testing"

	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitRequest struct {
	Title      string   `json:"title" validate:"required,min=3,max=120"`
	Content    string   `json:"content" validate:"required"`
	TokenUsage string   `json:"token_usage" validate:"token_usage"`
	Color      string   `json:"background_color" validate:"hexcolor_or_empty"`
	Categories []string `json:"categories" validate:"max=3"`
	Website    string   `json:"website,omitempty" validate:"omitempty,url"`
}

func valid() submitRequest {
	return submitRequest{
		Title:      "Refactor this function",
		Content:    "Rewrite the following code...",
		TokenUsage: "medium",
		Color:      "#1e293b",
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	assert.NoError(t, validation.New().Validate(valid()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(*submitRequest)
		wantField string
		wantMsg   string
	}{
		{"missing title", func(r *submitRequest) { r.Title = "" }, "title", "is required"},
		{"short title", func(r *submitRequest) { r.Title = "ab" }, "title", "at least 3 characters"},
		{"long title", func(r *submitRequest) { r.Title = strings.Repeat("x", 121) }, "title", "must not exceed 120"},
		{"bad bucket", func(r *submitRequest) { r.TokenUsage = "huge" }, "token_usage", "low medium high"},
		{"bad color", func(r *submitRequest) { r.Color = "blue" }, "background_color", "#rrggbb"},
		{"too many categories", func(r *submitRequest) { r.Categories = []string{"a", "b", "c", "d"} }, "categories", "at most 3 items"},
		{"bad url", func(r *submitRequest) { r.Website = "not a url" }, "website", "valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details[tt.wantField], tt.wantMsg)
		})
	}
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("rating", 4, "gte=1,lte=5"))

	err := v.Var("rating", 9, "gte=1,lte=5")
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestValidator_VarReportsUnderField(t *testing.T) {
	err := validation.New().Var("device_id", "not-a-uuid", "uuid4")

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, map[string]string{"device_id": "must be a valid device identifier"}, domainErr.Details)
}

func TestValidator_OptionalCustomTags(t *testing.T) {
	req := valid()
	req.Color = ""
	assert.NoError(t, validation.New().Validate(req), "an empty color is filled in later")
}
