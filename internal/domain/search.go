package domain

// Era restricts books by publication age.
type Era string

// Era values.
const (
	EraAll     Era = "all"
	EraRecent  Era = "recent"
	EraClassic Era = "classic"
)

// Length restricts books by page count.
type Length string

// Length values.
const (
	LengthAll    Length = "all"
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// BookType restricts books to fiction or non-fiction.
type BookType string

// BookType values.
const (
	TypeAll        BookType = "all"
	TypeFiction    BookType = "fiction"
	TypeNonFiction BookType = "non-fiction"
)

// SortBy selects the final result order.
type SortBy string

// SortBy values.
const (
	SortMoodMatch       SortBy = "mood_match"
	SortPublicationDate SortBy = "publication_date"
	SortPopularity      SortBy = "popularity"
)

// Filters are the structural facets of a search. Unknown values behave as "all".
type Filters struct {
	Era    Era      `json:"era,omitempty"`
	Length Length   `json:"length,omitempty"`
	Type   BookType `json:"type,omitempty"`
}

// SearchParams is one search request.
type SearchParams struct {
	Moods    []MoodKey `json:"moods"`
	FreeText string    `json:"free_text,omitempty"`
	Filters  Filters   `json:"filters"`
	SortBy   SortBy    `json:"sort_by,omitempty"`
}

// ScoredBook pairs a shared Book with request-scoped derived data.
type ScoredBook struct {
	Book       *Book       `json:"book"`
	MoodScores []MoodScore `json:"mood_scores"`
	// MatchSum and MatchMin are computed over the selected moods only.
	// Both are zero when no mood was selected.
	MatchSum float64 `json:"match_sum"`
	MatchMin float64 `json:"match_min"`
}

// SearchResult is the outcome of one search.
type SearchResult struct {
	SearchID   string       `json:"search_id"`
	Books      []ScoredBook `json:"books"`
	TotalCount int          `json:"total_count"`
	// AppliedThreshold is the per-mood threshold that produced Books, or 0 when
	// no mood was selected or nothing passed even at the floor.
	AppliedThreshold float64   `json:"applied_threshold,omitempty"`
	ThresholdsTried  []float64 `json:"thresholds_tried,omitempty"`
}
