package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyprompt/heyprompt-server/internal/service"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// Component states, from best to worst.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

var severity = map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}

// ComponentHealth is the state of one dependency.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Time the probe took"`
	Message string `json:"message,omitempty" doc:"Why the component is not healthy, or a short summary"`
}

// HealthResponse is the worst component state plus each component's own.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Components map[string]ComponentHealth `json:"components"`
}

type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		Description: "Probes the database, the search index and the event stream.",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	probes := map[string]func(context.Context) ComponentHealth{
		"database": s.probeDatabase,
		"search":   s.probeSearch,
		"sse":      s.probeStream,
	}

	out := HealthResponse{Status: statusHealthy, Components: make(map[string]ComponentHealth, len(probes))}
	for name, probe := range probes {
		c := probe(ctx)
		out.Components[name] = c
		if severity[c.Status] > severity[out.Status] {
			out.Status = c.Status
		}
	}
	return &HealthOutput{Body: out}, nil
}

// timed runs fn and stamps its duration onto the result.
func timed(fn func() ComponentHealth) ComponentHealth {
	start := time.Now()
	c := fn()
	c.Latency = time.Since(start).String()
	return c
}

// healthProbeID never exists; looking it up proves SQLite answers reads.
const healthProbeID = "user-health-probe"

func (s *Server) probeDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}
	return timed(func() ComponentHealth {
		_, err := s.store.GetUser(ctx, healthProbeID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return ComponentHealth{Status: statusUnhealthy, Message: "database read failed"}
		}
		return ComponentHealth{Status: statusHealthy}
	})
}

// probeSearch compares the index with the published catalog. An empty index
// over an empty catalog is healthy.
func (s *Server) probeSearch(ctx context.Context) ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search service not configured"}
	}
	return timed(func() ComponentHealth {
		n, err := s.services.Search.DocumentCount()
		switch {
		case errors.Is(err, service.ErrIndexDisabled):
			return ComponentHealth{Status: statusDegraded, Message: "search index disabled, using text match"}
		case err != nil:
			return ComponentHealth{Status: statusUnhealthy, Message: "search index unreachable"}
		}

		published, ok := s.publishedCount(ctx)
		switch {
		case !ok && n == 0:
			return ComponentHealth{Status: statusDegraded, Message: "search index empty"}
		case ok && n < uint64(published):
			return ComponentHealth{Status: statusDegraded, Message: fmt.Sprintf("%d of %d prompts indexed", n, published)}
		}
		return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d prompts indexed", n)}
	})
}

func (s *Server) publishedCount(ctx context.Context) (int, bool) {
	if s.store == nil {
		return 0, false
	}
	prompts, err := s.store.ListPrompts(ctx, store.PromptFilter{PublishedOnly: true})
	if err != nil {
		return 0, false
	}
	return len(prompts), true
}

func (s *Server) probeStream(context.Context) ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "event stream disabled"}
	}
	n := s.sseManager.ClientCount()
	if n == 1 {
		return ComponentHealth{Status: statusHealthy, Message: "1 connected client"}
	}
	return ComponentHealth{Status: statusHealthy, Message: fmt.Sprintf("%d connected clients", n)}
}
