// internal/model/testimonial.go
package model

import (
	"time"
)

// StatusApproved is the only testimonial status the embed engine ever sees.
const StatusApproved = "approved"

// Testimonial is one approved customer-supplied content item eligible for display.
// This corresponds to the testimonials table in storage.
type Testimonial struct {
	ID            string    `json:"id" yaml:"id" db:"id"`                                                                  // Stable unique identifier
	Message       string    `json:"message,omitempty" yaml:"message,omitempty" db:"message" validate:"max=5000,no_markup"` // Testimonial text
	Rating        *int      `json:"rating,omitempty" yaml:"rating,omitempty" db:"rating" validate:"omitempty,min=1,max=5"` // 1..5, nil when unrated
	AuthorName    string    `json:"authorName" yaml:"author_name" db:"author_name" validate:"required,max=120,no_markup"`  // Who wrote it
	AuthorCompany string    `json:"authorCompany,omitempty" yaml:"author_company,omitempty" db:"author_company"`           // Author's company
	AvatarURL     string    `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty" db:"avatar_url"`                       // Avatar image reference
	ImageURL      string    `json:"imageUrl,omitempty" yaml:"image_url,omitempty" db:"image_url"`                          // Still image reference
	VideoURL      string    `json:"videoUrl,omitempty" yaml:"video_url,omitempty" db:"video_url"`                          // Video reference
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at" db:"created_at"`                                           // Creation timestamp

	// Provider-side attributes; the renderer never reads them.
	OwnerID string   `json:"ownerId,omitempty" yaml:"owner_id,omitempty" db:"owner_id"`
	FormID  string   `json:"formId,omitempty" yaml:"form_id,omitempty" db:"form_id"`
	Tags    []string `json:"tags,omitempty" yaml:"tags,omitempty" db:"tags"`
	Status  string   `json:"status,omitempty" yaml:"status,omitempty" db:"status"`
}

// HasRating reports whether the testimonial carries a rating.
func (t Testimonial) HasRating() bool {
	return t.Rating != nil
}

// RatingValue returns the rating, or 0 when absent.
func (t Testimonial) RatingValue() int {
	if t.Rating == nil {
		return 0
	}
	return *t.Rating
}

// HasVideo reports whether the testimonial carries a video reference.
func (t Testimonial) HasVideo() bool {
	return t.VideoURL != ""
}

// FilterModel holds the declarative selection criteria of an embed.
// Limit bounds the result size; it is never a pagination cursor.
type FilterModel struct {
	MinRating *int     `json:"minRating,omitempty" yaml:"min_rating,omitempty" validate:"omitempty,min=1,max=5"`
	FormIDs   []string `json:"formIds,omitempty" yaml:"form_ids,omitempty"`
	Tags      []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Status    string   `json:"status" yaml:"status" validate:"omitempty,eq=approved"`
	Limit     *int     `json:"limit,omitempty" yaml:"limit,omitempty" validate:"omitempty,min=1"`
}

// Normalize returns a copy of f with Status forced to approved and Limit
// defaulted to defaultLimit and capped at maxLimit. Non-positive bounds are ignored.
func (f FilterModel) Normalize(defaultLimit, maxLimit int) FilterModel {
	out := f
	out.Status = StatusApproved
	out.FormIDs = append([]string(nil), f.FormIDs...)
	out.Tags = append([]string(nil), f.Tags...)

	limit := 0
	if f.Limit != nil && *f.Limit > 0 {
		limit = *f.Limit
	} else if defaultLimit > 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if limit > 0 {
		out.Limit = &limit
	} else {
		out.Limit = nil
	}
	return out
}

// LimitValue returns the limit, or 0 when unbounded.
func (f FilterModel) LimitValue() int {
	if f.Limit == nil {
		return 0
	}
	return *f.Limit
}

// Matches reports whether t satisfies every criterion of f except Limit.
func (f FilterModel) Matches(t Testimonial) bool {
	status := f.Status
	if status == "" {
		status = StatusApproved
	}
	if t.Status != status {
		return false
	}
	if f.MinRating != nil && (t.Rating == nil || *t.Rating < *f.MinRating) {
		return false
	}
	if len(f.FormIDs) > 0 && !contains(f.FormIDs, t.FormID) {
		return false
	}
	if len(f.Tags) > 0 {
		overlap := false
		for _, tag := range t.Tags {
			if contains(f.Tags, tag) {
				overlap = true
				break
			}
		}
		if !overlap {
			return false
		}
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
