package models

import "time"

// Counts are the row totals of the store.
type Counts struct {
	Users    int `json:"total_users"`
	Posts    int `json:"total_posts"`
	Comments int `json:"total_comments"`
}

// Overview is the blog-wide statistics block.
type Overview struct {
	Counts
	MostActiveUser         *string `json:"most_active_user"`
	MostCommentedPost      *string `json:"most_commented_post"`
	AveragePostsPerUser    float64 `json:"average_posts_per_user"`
	AverageCommentsPerPost float64 `json:"average_comments_per_post"`
}

// ActivityPost is a recently created post.
type ActivityPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity lists the most recent posts and comments.
type Activity struct {
	RecentPosts    []ActivityPost `json:"recent_posts"`
	RecentComments []Comment      `json:"recent_comments"`
}
