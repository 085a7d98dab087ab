package models

import (
	"strconv"
	"strings"
)

// Category of an event. The set is closed.
type Category string

const (
	CategoryCoding       Category = "Coding"
	CategoryGaming       Category = "Gaming"
	CategoryPresentation Category = "Presentation"
	CategoryHackathon    Category = "Hackathon"
)

// Categories in display order.
var Categories = []Category{CategoryCoding, CategoryGaming, CategoryPresentation, CategoryHackathon}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Event types as sent to the registration API.
const (
	EventTypeIndividual = "Individual"
	EventTypeTeam       = "Team"
)

type TeamSize struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

type Theme struct {
	Primary string `yaml:"primary" json:"primary"`
	Accent  string `yaml:"accent" json:"accent"`
}

// EventDefinition is one entry of the static catalog. Never mutated after load.
type EventDefinition struct {
	ID               string   `yaml:"id" json:"id"`
	Slug             string   `yaml:"slug" json:"slug"`
	Title            string   `yaml:"title" json:"title"`
	ShortDescription string   `yaml:"shortDescription" json:"shortDescription"`
	EntryFee         int      `yaml:"entryFee" json:"entryFee"`
	TeamSize         TeamSize `yaml:"teamSize" json:"teamSize"`
	Category         Category `yaml:"category" json:"category"`
	Theme            Theme    `yaml:"theme" json:"theme"`
	Image            string   `yaml:"image,omitempty" json:"image,omitempty"`
}

// IsTeam reports whether the event takes more than one participant.
// This is the only source of the Individual/Team distinction.
func (e EventDefinition) IsTeam() bool { return e.TeamSize.Max > 1 }

func (e EventDefinition) EventType() string {
	if e.IsTeam() {
		return EventTypeTeam
	}
	return EventTypeIndividual
}

// SizeLabel renders "5" for fixed-size events and "2 - 5" otherwise.
func (e EventDefinition) SizeLabel() string {
	if e.TeamSize.Min == e.TeamSize.Max {
		return strconv.Itoa(e.TeamSize.Min)
	}
	return strconv.Itoa(e.TeamSize.Min) + " - " + strconv.Itoa(e.TeamSize.Max)
}

// MemberRecord is one participant. Index 0 of a roster is the leader.
type MemberRecord struct {
	FullName     string `json:"fullName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Mobile       string `json:"mobile" validate:"required,mobile"`
	College      string `json:"college" validate:"required"`
	Branch       string `json:"branch" validate:"required"`
	Class        string `json:"class" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required"`
}

// IsBlank is true for a slot nobody started filling in.
func (m MemberRecord) IsBlank() bool {
	return strings.TrimSpace(m.FullName) == "" && strings.TrimSpace(m.Email) == ""
}

// RegistrationDraft is the plain form state handed to validation and the payload transform.
type RegistrationDraft struct {
	TeamName      string         `json:"teamName"`
	Members       []MemberRecord `json:"members"`
	TermsAccepted bool           `json:"termsAccepted"`
}

// RegistrationPayload is the body of POST /api/register. Team fields are null
// for individual events.
type RegistrationPayload struct {
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"`
	Mobile       string  `json:"mobile"`
	College      string  `json:"college"`
	Class        string  `json:"class"`
	Branch       string  `json:"branch"`
	AcademicYear string  `json:"academicYear"`
	EventName    string  `json:"eventName"`
	EventType    string  `json:"eventType"`
	TeamName     *string `json:"teamName"`
	TeamLeader   *string `json:"teamLeader"`
	TeamMembers  *string `json:"teamMembers"`
}

// StoredRegistration is a row returned by the admin API.
type StoredRegistration struct {
	ID             string  `json:"id"`
	FullName       string  `json:"fullName"`
	Email          string  `json:"email"`
	Mobile         string  `json:"mobile"`
	College        string  `json:"college"`
	Class          string  `json:"class"`
	Branch         string  `json:"branch"`
	AcademicYear   string  `json:"academicYear"`
	EventName      string  `json:"eventName"`
	EventType      string  `json:"eventType"`
	TeamName       *string `json:"teamName"`
	TeamLeader     *string `json:"teamLeader"`
	TeamMembers    *string `json:"teamMembers"`
	Status         string  `json:"status"`
	PaymentStatus  string  `json:"paymentStatus"`
	PaymentMethod  *string `json:"paymentMethod"`
	AmountExpected int     `json:"amountExpected"`
	AmountPaid     *int    `json:"amountPaid"`
	CreatedAt      string  `json:"createdAt"`
}
