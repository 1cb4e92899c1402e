package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibunbook/kibun-server/internal/domain"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search books by mood",
		Description: "Filters the catalog by free text and facets, then ranks books that match every selected mood. " +
			"The mood threshold is relaxed step by step until something matches.",
		Tags: []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchFilters restricts the candidate books. Unknown values behave as "all".
type SearchFilters struct {
	Era    string `json:"era,omitempty" doc:"all, recent (last 10 years) or classic (over 50 years old)"`
	Length string `json:"length,omitempty" doc:"all, short (<200 pages), medium or long (>400 pages)"`
	Type   string `json:"type,omitempty" doc:"all, fiction or non-fiction"`
}

// SearchRequest is the body of a search.
type SearchRequest struct {
	Moods    []string      `json:"moods,omitempty" maxItems:"16" doc:"Mood keys or labels; unknown entries are ignored"`
	FreeText string        `json:"free_text,omitempty" maxLength:"200" doc:"Substring matched against title, authors, summary and subjects"`
	Filters  SearchFilters `json:"filters,omitempty"`
	SortBy   string        `json:"sort_by,omitempty" doc:"mood_match (default), publication_date or popularity"`
}

// SearchInput contains parameters for searching the catalog.
type SearchInput struct {
	Body SearchRequest
}

// SearchResponse contains ranked books and how they were found.
type SearchResponse struct {
	SearchID         string         `json:"search_id" doc:"Identifier of this search"`
	Moods            []domain.Mood  `json:"moods" doc:"Moods the search was ranked for"`
	Books            []BookResponse `json:"books" doc:"Matching books in result order"`
	TotalCount       int            `json:"total_count" doc:"Number of books returned"`
	AppliedThreshold float64        `json:"applied_threshold,omitempty" doc:"Per-mood threshold that produced the result"`
	ThresholdsTried  []float64      `json:"thresholds_tried,omitempty" doc:"Thresholds attempted, in order"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := input.Body.params()

	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, s.apiError(err)
	}

	moods := make([]domain.Mood, 0, len(params.Moods))
	for _, k := range params.Moods {
		moods = append(moods, domain.Mood{Key: k, Label: k.Label()})
	}

	return &SearchOutput{
		Body: SearchResponse{
			SearchID:         result.SearchID,
			Moods:            moods,
			Books:            toBookResponses(result.Books),
			TotalCount:       result.TotalCount,
			AppliedThreshold: result.AppliedThreshold,
			ThresholdsTried:  result.ThresholdsTried,
		},
	}, nil
}

func (r *SearchRequest) params() domain.SearchParams {
	return domain.SearchParams{
		Moods:    domain.ParseMoods(r.Moods),
		FreeText: r.FreeText,
		Filters: domain.Filters{
			Era:    domain.Era(r.Filters.Era),
			Length: domain.Length(r.Filters.Length),
			Type:   domain.BookType(r.Filters.Type),
		},
		SortBy: domain.SortBy(r.SortBy),
	}
}
