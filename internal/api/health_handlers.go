package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibunbook/kibun-server/internal/catalog"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with the catalog cache state",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status  string         `json:"status" doc:"Overall status: healthy, starting or degraded"`
	Catalog catalog.Status `json:"catalog" doc:"Catalog cache state"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// handleHealthCheck never loads the catalog itself. A catalog that has not
// been requested yet reports "starting"; one whose last load failed reports
// "degraded" until a later load succeeds.
func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	status := s.search.CatalogStatus()

	overall := "healthy"
	switch {
	case !status.Loaded && status.LastError != "":
		overall = "degraded"
	case !status.Loaded:
		overall = "starting"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:  overall,
			Catalog: status,
		},
	}, nil
}
