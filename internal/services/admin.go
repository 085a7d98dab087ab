package services

import (
	"sort"
	"strings"

	"github.com/overdrive/techfest/internal/forms"
	"github.com/overdrive/techfest/internal/models"
)

// FilterRegistrations applies the dashboard search box and event filter.
// q matches name, email or id case-insensitively, and mobile numbers by digits
// so "+91 98765" finds "9876543210". An empty event or "all" keeps every event.
func FilterRegistrations(regs []models.StoredRegistration, q, event string) []models.StoredRegistration {
	q = strings.ToLower(strings.TrimSpace(q))
	event = strings.TrimSpace(event)
	if strings.EqualFold(event, "all") {
		event = ""
	}
	qDigits := NormMobile(q)
	if strings.HasPrefix(q, "+91") && len(qDigits) < 10 {
		qDigits = strings.TrimPrefix(qDigits, "91")
	}

	out := make([]models.StoredRegistration, 0, len(regs))
	for _, r := range regs {
		if event != "" && r.EventName != event {
			continue
		}
		if q != "" && !matches(r, q, qDigits) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matches(r models.StoredRegistration, q, qDigits string) bool {
	email, _ := NormEmail(r.Email)
	if strings.Contains(strings.ToLower(r.FullName), q) ||
		strings.Contains(email, q) ||
		strings.Contains(strings.ToLower(r.ID), q) {
		return true
	}
	if r.TeamName != nil && strings.Contains(strings.ToLower(*r.TeamName), q) {
		return true
	}
	// digit searches need a few digits to avoid matching every number
	return len(qDigits) >= 4 && strings.Contains(NormMobile(r.Mobile), qDigits)
}

// EventNames lists the distinct event names present, sorted, for the filter menu.
func EventNames(regs []models.StoredRegistration) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range regs {
		if r.EventName != "" && !seen[r.EventName] {
			seen[r.EventName] = true
			out = append(out, r.EventName)
		}
	}
	sort.Strings(out)
	return out
}

// FindRegistration returns the registration with id.
func FindRegistration(regs []models.StoredRegistration, id string) (models.StoredRegistration, bool) {
	for _, r := range regs {
		if r.ID == id {
			return r, true
		}
	}
	return models.StoredRegistration{}, false
}

// RegistrationDetails is the admin detail view of one stored registration.
type RegistrationDetails struct {
	Registration models.StoredRegistration
	Members      []models.MemberRecord
	// MembersError is set when teamMembers could not be decoded; the raw value
	// is still shown.
	MembersError string
}

func Details(r models.StoredRegistration) RegistrationDetails {
	d := RegistrationDetails{Registration: r}
	if r.TeamMembers == nil {
		return d
	}
	members, err := forms.ParseTeamMembers(*r.TeamMembers)
	if err != nil {
		d.MembersError = err.Error()
		return d
	}
	d.Members = members
	return d
}
