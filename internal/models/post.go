package models

import "time"

// Post is a blog entry owned by one user.
type Post struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	UserID        int64     `json:"user_id"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CommentsCount int       `json:"comments_count"`
}

// PostWithComments is a post together with its comment thread.
type PostWithComments struct {
	Post
	Comments []Comment `json:"comments"`
}

// PostInput is the input for creating or editing a post.
type PostInput struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
}

// PostQuery filters and orders a post listing.
type PostQuery struct {
	Page   PageRequest
	Author string
	Search string
	Sort   string
	Order  string
}

// Normalize replaces unknown sort keys and orders with the defaults.
func (q *PostQuery) Normalize() {
	switch q.Sort {
	case "title", "updated_at", "created_at":
	default:
		q.Sort = "created_at"
	}
	if q.Order != "asc" {
		q.Order = "desc"
	}
}

// PostHit is a search result with its relevance score.
type PostHit struct {
	Post
	RelevanceScore int `json:"relevance_score"`
}

// PostAnalytics holds derived content metrics for a post.
type PostAnalytics struct {
	PostID    int64          `json:"post_id"`
	Title     string         `json:"title"`
	Author    string         `json:"author"`
	CreatedAt time.Time      `json:"created_at"`
	Analytics ContentMetrics `json:"analytics"`
	Comments  CommentMetrics `json:"comments_stats"`
}

// ContentMetrics are computed from the post body.
type ContentMetrics struct {
	WordCount        int     `json:"word_count"`
	CharacterCount   int     `json:"character_count"`
	ParagraphCount   int     `json:"paragraph_count"`
	CommentsCount    int     `json:"comments_count"`
	EngagementScore  float64 `json:"engagement_score"`
	ReadabilityScore float64 `json:"readability_score"`
}

// CommentMetrics summarise a post's comment thread.
type CommentMetrics struct {
	TotalComments        int     `json:"total_comments"`
	UniqueCommenters     int     `json:"unique_commenters"`
	AverageCommentLength float64 `json:"average_comment_length"`
}
