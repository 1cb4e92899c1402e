package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibunbook/kibun-server/internal/domain"
)

func (s *Server) registerMoodRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMoods",
		Method:      http.MethodGet,
		Path:        "/api/v1/moods",
		Summary:     "List moods",
		Description: "Returns the selectable moods in display order",
		Tags:        []string{"Moods"},
	}, s.handleListMoods)
}

// MoodsResponse lists the selectable moods.
type MoodsResponse struct {
	Moods []domain.Mood `json:"moods" doc:"Moods in display order"`
}

// MoodsOutput wraps the moods response for Huma.
type MoodsOutput struct {
	Body MoodsResponse
}

func (s *Server) handleListMoods(_ context.Context, _ *struct{}) (*MoodsOutput, error) {
	return &MoodsOutput{Body: MoodsResponse{Moods: s.search.Moods()}}, nil
}
