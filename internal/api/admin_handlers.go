package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	"github.com/heyprompt/heyprompt-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getAdminAnalytics",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/analytics",
		Summary:     "Site analytics",
		Description: "Site totals, last-week counters and the buffered product events. Requires admin.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAdminAnalytics)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users",
		Summary:     "List users",
		Description: "Lists all users. Requires admin.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "setUserAdmin",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/users/{id}/admin",
		Summary:     "Set admin",
		Description: "Grants or revokes admin rights. Admins cannot revoke their own.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetUserAdmin)
}

// AdminAnalyticsOutput wraps the dashboard for Huma.
type AdminAnalyticsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         *service.AdminAnalytics
}

// UsersResponse lists users.
type UsersResponse struct {
	Users []*domain.User `json:"users"`
}

// UsersOutput wraps users for Huma.
type UsersOutput struct {
	Body UsersResponse
}

// SetAdminInput changes a user's admin flag.
type SetAdminInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body struct {
		IsAdmin bool `json:"is_admin" doc:"New admin flag"`
	}
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

func (s *Server) handleAdminAnalytics(ctx context.Context, _ *struct{}) (*AdminAnalyticsOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	stats, err := s.services.Admin.Analytics(ctx)
	if err != nil {
		return nil, err
	}
	stats.RecentEvents = nonNil(stats.RecentEvents)
	return &AdminAnalyticsOutput{CacheControl: CacheNoStore, Body: stats}, nil
}

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*UsersOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := s.services.Admin.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return &UsersOutput{Body: UsersResponse{Users: nonNil(users)}}, nil
}

func (s *Server) handleSetUserAdmin(ctx context.Context, input *SetAdminInput) (*UserOutput, error) {
	actorID, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Admin.SetAdmin(ctx, actorID, input.ID, input.Body.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}
