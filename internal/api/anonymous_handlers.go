package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/domain"
	domainerrors "github.com/heyprompt/heyprompt-server/internal/errors"
	"github.com/heyprompt/heyprompt-server/internal/id"
)

func (s *Server) registerAnonymousRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "issueAnonymousID",
		Method:        http.MethodPost,
		Path:          "/api/v1/anonymous",
		Summary:       "Issue anonymous device id",
		Description:   "Returns a new device id. Send it as X-Anonymous-ID on later requests to copy prompts without an account.",
		Tags:          []string{"Anonymous"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimited(s.anonymousRateLimiter)},
	}, s.handleIssueAnonymousID)

	huma.Register(s.api, huma.Operation{
		OperationID: "getAnonymousQuota",
		Method:      http.MethodGet,
		Path:        "/api/v1/anonymous/quota",
		Summary:     "Get copy quota",
		Description: "Returns today's copy usage of the calling device",
		Tags:        []string{"Anonymous"},
		Security:    []map[string][]string{{"anonymous": {}}},
	}, s.handleGetAnonymousQuota)
}

// AnonymousIDResponse carries a newly issued device id.
type AnonymousIDResponse struct {
	DeviceID string             `json:"device_id" doc:"Device id for the X-Anonymous-ID header"`
	Quota    domain.QuotaStatus `json:"quota" doc:"Copy quota of the new device"`
}

// AnonymousIDOutput wraps the issued id for Huma.
type AnonymousIDOutput struct {
	Body AnonymousIDResponse
}

// QuotaOutput wraps a quota for Huma.
type QuotaOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         domain.QuotaStatus
}

func (s *Server) handleIssueAnonymousID(ctx context.Context, _ *struct{}) (*AnonymousIDOutput, error) {
	deviceID := id.NewDeviceID()
	return &AnonymousIDOutput{
		Body: AnonymousIDResponse{
			DeviceID: deviceID,
			Quota:    s.services.Interaction.Quota(ctx, deviceID),
		},
	}, nil
}

func (s *Server) handleGetAnonymousQuota(ctx context.Context, _ *struct{}) (*QuotaOutput, error) {
	deviceID := viewerFrom(ctx).DeviceID
	if deviceID == "" {
		return nil, domainerrors.MalformedInput("missing or invalid " + HeaderAnonymousID + " header")
	}
	return &QuotaOutput{
		CacheControl: CacheNoStore,
		Body:         s.services.Interaction.Quota(ctx, deviceID),
	}, nil
}
