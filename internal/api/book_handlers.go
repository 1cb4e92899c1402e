package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a catalog book with its mood scores",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSimilarBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/similar",
		Summary:     "Get similar books",
		Description: "Returns other books in the same classification, in catalog order",
		Tags:        []string{"Books"},
	}, s.handleGetSimilarBooks)
}

// GetBookInput identifies a book.
type GetBookInput struct {
	ID string `path:"id" minLength:"1" maxLength:"128" doc:"Book ID"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body BookResponse
}

// SimilarBooksInput identifies a book and how many neighbours to return.
type SimilarBooksInput struct {
	ID    string `path:"id" minLength:"1" maxLength:"128" doc:"Book ID"`
	Limit int    `query:"limit" minimum:"0" maximum:"50" doc:"Maximum books to return (default 3)"`
}

// SimilarBooksResponse lists similar books.
type SimilarBooksResponse struct {
	BookID string         `json:"book_id" doc:"Book the list is relative to"`
	Books  []BookResponse `json:"books" doc:"Similar books"`
}

// SimilarBooksOutput wraps the similar books response for Huma.
type SimilarBooksOutput struct {
	Body SimilarBooksResponse
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.search.GetBook(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &BookOutput{Body: toBookResponse(*book)}, nil
}

func (s *Server) handleGetSimilarBooks(ctx context.Context, input *SimilarBooksInput) (*SimilarBooksOutput, error) {
	books, err := s.search.SimilarBooks(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, s.apiError(err)
	}
	return &SimilarBooksOutput{
		Body: SimilarBooksResponse{
			BookID: input.ID,
			Books:  toBookResponses(books),
		},
	}, nil
}
