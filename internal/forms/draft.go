package forms

import (
	"strings"

	"github.com/google/uuid"

	"github.com/overdrive/techfest/internal/models"
)

// Draft is the editable registration for one event. Its roster always holds
// between TeamSize.Min and TeamSize.Max members; index 0 is the leader.
//
// A Draft is owned by a single session and is not safe for concurrent use.
type Draft struct {
	id      string
	version int
	event   models.EventDefinition

	teamName string
	members  []models.MemberRecord
	terms    bool
}

// Snapshot is the persisted form of a Draft.
type Snapshot struct {
	ID            string
	Version       int
	TeamName      string
	Members       []models.MemberRecord
	TermsAccepted bool
}

// NewDraft opens a draft with a fresh identity and exactly TeamSize.Min blank members.
func NewDraft(ev models.EventDefinition) *Draft {
	return &Draft{
		id:      uuid.NewString(),
		event:   ev,
		members: make([]models.MemberRecord, ev.TeamSize.Min),
	}
}

// RestoreDraft rebuilds a draft from a snapshot. A snapshot whose roster size is
// outside the event's bounds was not produced by this type and is rejected.
func RestoreDraft(ev models.EventDefinition, s Snapshot) (*Draft, error) {
	if s.ID == "" {
		return nil, precondition("RestoreDraft", "snapshot has no id")
	}
	if n := len(s.Members); n < ev.TeamSize.Min || n > ev.TeamSize.Max {
		return nil, precondition("RestoreDraft", "%d members outside [%d, %d] for %s",
			n, ev.TeamSize.Min, ev.TeamSize.Max, ev.Slug)
	}
	members := make([]models.MemberRecord, len(s.Members))
	copy(members, s.Members)
	return &Draft{
		id:       s.ID,
		version:  s.Version,
		event:    ev,
		teamName: s.TeamName,
		members:  members,
		terms:    s.TermsAccepted,
	}, nil
}

func (d *Draft) ID() string                    { return d.id }
func (d *Draft) Version() int                  { return d.version }
func (d *Draft) Event() models.EventDefinition { return d.event }
func (d *Draft) Len() int                      { return len(d.members) }
func (d *Draft) TeamName() string              { return d.teamName }
func (d *Draft) TermsAccepted() bool           { return d.terms }

// Members returns a copy of the roster.
func (d *Draft) Members() []models.MemberRecord {
	out := make([]models.MemberRecord, len(d.members))
	copy(out, d.members)
	return out
}

// CanAdd reports whether another member slot may be appended.
func (d *Draft) CanAdd() bool { return len(d.members) < d.event.TeamSize.Max }

// CanRemove reports whether the member at i is optional and may be removed.
func (d *Draft) CanRemove(i int) bool {
	return i >= d.event.TeamSize.Min && i < len(d.members) && len(d.members)-1 >= d.event.TeamSize.Min
}

// AddMember appends a blank member. It returns ErrTeamFull at the maximum.
func (d *Draft) AddMember() error {
	if !d.CanAdd() {
		return ErrTeamFull
	}
	d.members = append(d.members, models.MemberRecord{})
	d.version++
	return nil
}

// RemoveMember drops the member at i. The leader and the first Min members are
// mandatory, so removing any of them is a *PreconditionError.
func (d *Draft) RemoveMember(i int) error {
	if i < 0 || i >= len(d.members) {
		return precondition("RemoveMember", "index %d out of range [0, %d)", i, len(d.members))
	}
	if i < d.event.TeamSize.Min {
		return precondition("RemoveMember", "member %d is mandatory (minimum %d)", i, d.event.TeamSize.Min)
	}
	if len(d.members)-1 < d.event.TeamSize.Min {
		return precondition("RemoveMember", "roster would drop below %d members", d.event.TeamSize.Min)
	}
	d.members = append(d.members[:i], d.members[i+1:]...)
	d.version++
	return nil
}

// EditField sets one field of one member. field is a JSON field name from Fields.
func (d *Draft) EditField(i int, field, value string) error {
	if i < 0 || i >= len(d.members) {
		return precondition("EditField", "index %d out of range [0, %d)", i, len(d.members))
	}
	p := fieldPtr(&d.members[i], field)
	if p == nil {
		return precondition("EditField", "unknown field %q", field)
	}
	value = strings.TrimSpace(value)
	if *p != value {
		*p = value
		d.version++
	}
	return nil
}

// SetTeamName stores the team name. It is kept for individual events too but
// never reaches the payload there.
func (d *Draft) SetTeamName(name string) {
	name = strings.TrimSpace(name)
	if d.teamName != name {
		d.teamName = name
		d.version++
	}
}

func (d *Draft) SetTermsAccepted(v bool) {
	if d.terms != v {
		d.terms = v
		d.version++
	}
}

// Values returns the plain form state for validation and submission.
func (d *Draft) Values() models.RegistrationDraft {
	return models.RegistrationDraft{
		TeamName:      d.teamName,
		Members:       d.Members(),
		TermsAccepted: d.terms,
	}
}

func (d *Draft) Snapshot() Snapshot {
	return Snapshot{
		ID:            d.id,
		Version:       d.version,
		TeamName:      d.teamName,
		Members:       d.Members(),
		TermsAccepted: d.terms,
	}
}

func fieldPtr(m *models.MemberRecord, field string) *string {
	switch field {
	case "fullName":
		return &m.FullName
	case "email":
		return &m.Email
	case "mobile":
		return &m.Mobile
	case "college":
		return &m.College
	case "branch":
		return &m.Branch
	case "class":
		return &m.Class
	case "academicYear":
		return &m.AcademicYear
	}
	return nil
}

// FieldValue reads a member field by its JSON name; unknown names read as "".
func FieldValue(m models.MemberRecord, field string) string {
	if p := fieldPtr(&m, field); p != nil {
		return *p
	}
	return ""
}
