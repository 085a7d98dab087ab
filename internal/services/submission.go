package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/overdrive/techfest/internal/apiclient"
	"github.com/overdrive/techfest/internal/events"
	"github.com/overdrive/techfest/internal/forms"
	"github.com/overdrive/techfest/internal/logging"
	"github.com/overdrive/techfest/internal/models"
)

// RegistrationAPI is the submit half of the registration API client.
type RegistrationAPI interface {
	Submit(ctx context.Context, p models.RegistrationPayload) (apiclient.SubmitResult, error)
}

// EventLookup resolves a draft's event.
type EventLookup interface {
	GetBySlug(slug string) (models.EventDefinition, error)
}

type Submitter struct {
	drafts    *DraftStore
	events    EventLookup
	api       RegistrationAPI
	publisher events.Publisher
	now       func() time.Time
}

// Outcome of an accepted submission.
type Outcome struct {
	RegistrationID string
	Event          models.EventDefinition
	Email          string
}

func NewSubmitter(drafts *DraftStore, lookup EventLookup, api RegistrationAPI, pub events.Publisher) *Submitter {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &Submitter{drafts: drafts, events: lookup, api: api, publisher: pub, now: time.Now}
}

// Submit validates the stored draft, sends it to the API once and settles the
// draft. Invalid drafts return forms.ValidationErrors and stay untouched. A
// failed call returns SubmitFailed and leaves the draft editable. If the draft
// was discarded while the call was outstanding the result is ErrDraftDiscarded.
func (s *Submitter) Submit(ctx context.Context, draftID string) (Outcome, error) {
	ctx = logging.AppendCtx(ctx, slog.String("draft_id", draftID))

	rec, err := s.drafts.Load(ctx, draftID)
	if err != nil {
		return Outcome{}, err
	}
	if rec.Status == models.DraftSubmitting {
		return Outcome{}, ErrSubmissionInFlight
	}
	ev, err := s.events.GetBySlug(rec.EventSlug)
	if err != nil {
		return Outcome{}, fmt.Errorf("draft %s: %w", draftID, err)
	}
	ctx = logging.AppendCtx(ctx, slog.String("event", ev.Slug))

	draft, err := forms.RestoreDraft(ev, Snapshot(rec))
	if err != nil {
		return Outcome{}, err
	}
	schema, err := forms.SchemaFor(ev)
	if err != nil {
		return Outcome{}, err
	}
	values := draft.Values()
	if err := schema.Validate(values); err != nil {
		return Outcome{}, err
	}
	payload := forms.BuildPayload(ev, values)

	if err := s.drafts.BeginSubmit(ctx, draftID, draft.Version()); err != nil {
		return Outcome{}, err
	}
	slog.InfoContext(ctx, "submitting registration", "event_type", payload.EventType)

	res, apiErr := s.api.Submit(ctx, payload)

	// The request may have outlived the page that started it.
	settle := context.WithoutCancel(ctx)
	if err := s.drafts.FinishSubmit(settle, draftID, draft.Version(), apiErr == nil); err != nil {
		if errors.Is(err, ErrDraftDiscarded) {
			slog.WarnContext(ctx, "submission outcome ignored, draft discarded",
				"registration_id", res.ID, "api_error", apiErr)
		}
		return Outcome{}, err
	}
	if apiErr != nil {
		slog.WarnContext(ctx, "registration rejected", "error", apiErr)
		return Outcome{}, newSubmitFailed(draftID, apiErr)
	}

	slog.InfoContext(ctx, "registration accepted", "registration_id", res.ID)
	s.announce(settle, ev, values, res.ID)

	return Outcome{RegistrationID: res.ID, Event: ev, Email: payload.Email}, nil
}

func (s *Submitter) announce(ctx context.Context, ev models.EventDefinition, d models.RegistrationDraft, id string) {
	msg := events.Submitted{
		RegistrationID: id,
		EventSlug:      ev.Slug,
		EventName:      ev.Title,
		EventType:      ev.EventType(),
		SubmittedAt:    s.now().UTC(),
		MemberCount:    1,
	}
	if ev.IsTeam() {
		msg.TeamName = d.TeamName
		msg.MemberCount = 0
		for _, m := range d.Members {
			if !m.IsBlank() {
				msg.MemberCount++
			}
		}
	}
	if err := s.publisher.PublishSubmitted(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "publish submitted event", "error", err)
	}
}
