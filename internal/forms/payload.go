package forms

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/overdrive/techfest/internal/models"
)

// BuildPayload flattens a validated draft into the body of POST /api/register.
// It does no I/O and the same input always encodes to the same bytes.
//
// The event type comes from the event alone. For individual events the team
// fields are null whatever the draft holds.
func BuildPayload(ev models.EventDefinition, d models.RegistrationDraft) models.RegistrationPayload {
	var leader models.MemberRecord
	if len(d.Members) > 0 {
		leader = d.Members[0]
	}

	p := models.RegistrationPayload{
		FullName:     leader.FullName,
		Email:        leader.Email,
		Mobile:       leader.Mobile,
		College:      leader.College,
		Class:        leader.Class,
		Branch:       leader.Branch,
		AcademicYear: leader.AcademicYear,
		EventName:    ev.Title,
		EventType:    ev.EventType(),
	}
	if !ev.IsTeam() {
		return p
	}

	teamName := strings.TrimSpace(d.TeamName)
	teamLeader := leader.FullName
	teamMembers := encodeMembers(trimTrailingBlank(d.Members))
	p.TeamName = &teamName
	p.TeamLeader = &teamLeader
	p.TeamMembers = &teamMembers
	return p
}

func trimTrailingBlank(members []models.MemberRecord) []models.MemberRecord {
	n := len(members)
	for n > 0 && members[n-1].IsBlank() {
		n--
	}
	return members[:n]
}

func encodeMembers(members []models.MemberRecord) string {
	if members == nil {
		members = []models.MemberRecord{}
	}
	// MemberRecord is all strings; Marshal cannot fail on it.
	b, _ := json.Marshal(members)
	return string(b)
}

// ParseTeamMembers decodes the teamMembers column of a stored registration.
// Empty or missing input yields no members.
func ParseTeamMembers(s string) ([]models.MemberRecord, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []models.MemberRecord
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode team members: %w", err)
	}
	return out, nil
}
