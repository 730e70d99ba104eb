package models

import "time"

// Comment is a reply to a post.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	PostID    int64     `json:"post_id"`
	PostTitle string    `json:"post_title,omitempty"`
	UserID    int64     `json:"user_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentInput is the input for creating or editing a comment.
type CommentInput struct {
	Content string `json:"content" validate:"required"`
}
