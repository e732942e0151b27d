package domain

import "time"

// AnonymousReviewer is shown when a review's author cannot be resolved.
const AnonymousReviewer = "Anonymous"

// Review is a product review joined with its author's display name.
type Review struct {
	ID           int64     `json:"id"`
	ProductID    int64     `json:"product_id"`
	UserID       int64     `json:"user_id"`
	Rating       int32     `json:"rating"`
	Comment      string    `json:"comment"`
	HelpfulCount int32     `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
	UserName     string    `json:"user_name"`
}
