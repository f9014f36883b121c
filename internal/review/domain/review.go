package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrNotPurchased    = errors.New("only purchased products can be reviewed")
	ErrAlreadyReviewed = errors.New("product already reviewed by this user")
	ErrInvalidReview   = errors.New("invalid review")
)

const MaxCommentLength = 1000

// Review is hidden from the product page until an admin approves it.
type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	UserID     string    `json:"-"`
	UserName   string    `json:"user_name"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate returns a field name to message map; nil means valid.
func Validate(rating int, comment string) map[string]string {
	fields := map[string]string{}
	if rating < 1 || rating > 5 {
		fields["rating"] = "must be between 1 and 5"
	}
	c := strings.TrimSpace(comment)
	switch {
	case c == "":
		fields["comment"] = "is required"
	case utf8.RuneCountInString(c) > MaxCommentLength:
		fields["comment"] = "must be at most 1000 characters"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
