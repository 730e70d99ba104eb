package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is a user with activity counters.
type UserSummary struct {
	User
	PostsCount    int `json:"posts_count"`
	CommentsCount int `json:"comments_count"`
}

// UserStats aggregates a user's activity.
type UserStats struct {
	PostsCount       int        `json:"posts_count"`
	CommentsCount    int        `json:"comments_count"`
	CommentsReceived int        `json:"comments_received"`
	LatestPost       *string    `json:"latest_post"`
	LatestPostDate   *time.Time `json:"latest_post_date"`
}

// UserProfile is a user with stats and their most recent posts.
type UserProfile struct {
	User
	Stats       UserStats `json:"stats"`
	RecentPosts []Post    `json:"recent_posts"`
}

// RegisterUser is the input for creating an account.
type RegisterUser struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateUser is the input for editing profile fields.
type UpdateUser struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
}

// ChangePassword is the input for rotating a password.
type ChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}
