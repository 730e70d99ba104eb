package services

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/blogstack/internal/models"
)

// Analyze derives content and comment metrics. The scores are rough
// indicators, not a ranking contract.
func Analyze(post models.Post, comments []models.Comment) models.PostAnalytics {
	words := len(strings.Fields(post.Content))

	a := models.PostAnalytics{
		PostID:    post.ID,
		Title:     post.Title,
		Author:    post.Author,
		CreatedAt: post.CreatedAt,
		Analytics: models.ContentMetrics{
			WordCount:        words,
			CharacterCount:   utf8.RuneCountInString(post.Content),
			ParagraphCount:   len(strings.Split(post.Content, "\n\n")),
			CommentsCount:    len(comments),
			EngagementScore:  round2(float64(len(comments))*2 + float64(words)*0.1),
			ReadabilityScore: round2(math.Min(100, math.Max(0, 100-float64(words)*0.1))),
		},
	}

	commenters := make(map[int64]struct{}, len(comments))
	total := 0
	for _, c := range comments {
		commenters[c.UserID] = struct{}{}
		total += utf8.RuneCountInString(c.Content)
	}
	a.Comments = models.CommentMetrics{
		TotalComments:    len(comments),
		UniqueCommenters: len(commenters),
	}
	if len(comments) > 0 {
		a.Comments.AverageCommentLength = round2(float64(total) / float64(len(comments)))
	}
	return a
}

// Excerpt shortens s to n runes, marking the cut with "...".
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
