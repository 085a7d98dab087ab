package models

import "time"

// Draft statuses. A draft row only exists while it is being edited or submitted;
// a successful submission deletes it.
const (
	DraftEditing    = "editing"
	DraftSubmitting = "submitting"
)

// DraftRecord persists one in-progress registration between form posts.
type DraftRecord struct {
	ID        string `gorm:"primaryKey;size:36"` // uuid, also the draft_id cookie value
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`

	EventSlug     string         `gorm:"index;not null"`
	TeamName      string
	Members       []MemberRecord `gorm:"serializer:json"`
	TermsAccepted bool
	Version       int    `gorm:"not null;default:0"`
	Status        string `gorm:"not null;default:editing"` // editing | submitting
}
