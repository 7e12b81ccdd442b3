// Package testimonial collects user reviews. Submissions land in a
// moderation queue; only approved ones are public.
package testimonial

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrTestimonialNotFound = errors.New("testimonial not found")

// Moderation statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const minContentLength = 20

type Testimonial struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name"`
	Content   string    `json:"content"`
	Rating    int       `json:"rating"`
	Location  *string   `json:"location,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type SubmitRequest struct {
	Content  string  `json:"content"`
	Rating   int     `json:"rating"`
	Location *string `json:"location,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	if len(strings.TrimSpace(r.Content)) < minContentLength {
		return fmt.Errorf("content must be at least %d characters", minContentLength)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5")
	}
	return nil
}
