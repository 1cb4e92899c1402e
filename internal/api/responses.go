package api

import (
	"github.com/kibunbook/kibun-server/internal/domain"
)

// MoodScoreResponse is one mood score with its display label.
type MoodScoreResponse struct {
	Mood  domain.MoodKey `json:"mood" doc:"Mood key"`
	Label string         `json:"label" doc:"Mood label"`
	Score float64        `json:"score" doc:"Score between 0 and 1"`
}

// BookResponse is a catalog book with its mood scores.
type BookResponse struct {
	domain.Book
	MoodScores []MoodScoreResponse `json:"mood_scores" doc:"Top moods for the book, highest first"`
	MatchSum   float64             `json:"match_sum,omitempty" doc:"Sum of scores over the selected moods"`
	MatchMin   float64             `json:"match_min,omitempty" doc:"Lowest score among the selected moods"`
}

func toBookResponse(sb domain.ScoredBook) BookResponse {
	scores := make([]MoodScoreResponse, len(sb.MoodScores))
	for i, ms := range sb.MoodScores {
		scores[i] = MoodScoreResponse{Mood: ms.Mood, Label: ms.Mood.Label(), Score: ms.Score}
	}
	return BookResponse{
		Book:       *sb.Book,
		MoodScores: scores,
		MatchSum:   sb.MatchSum,
		MatchMin:   sb.MatchMin,
	}
}

func toBookResponses(books []domain.ScoredBook) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = toBookResponse(b)
	}
	return out
}
