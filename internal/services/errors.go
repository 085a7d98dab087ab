package services

import (
	"errors"
	"fmt"
)

var (
	// ErrDraftNotFound: no draft with that id (never created, purged or discarded).
	ErrDraftNotFound = errors.New("draft not found")

	// ErrSubmissionInFlight: the draft is already being submitted.
	ErrSubmissionInFlight = errors.New("submission already in progress")

	// ErrStaleDraft: the draft changed since the caller loaded it.
	ErrStaleDraft = errors.New("draft was modified")

	// ErrDraftDiscarded: the draft went away while its submission was outstanding,
	// so the outcome was not applied.
	ErrDraftDiscarded = errors.New("draft was discarded during submission")
)

type base struct {
	message string
	err     error
}

func (b base) error() string {
	if b.err == nil {
		return b.message
	}
	return fmt.Sprintf("%s: %v", b.message, b.err)
}

func (b base) Unwrap() error { return b.err }

// SubmitFailed wraps the API error of a rejected or failed submission. The
// draft is back in editing and can be resubmitted.
type SubmitFailed struct {
	base
	DraftID string
}

func (e SubmitFailed) Error() string { return e.error() }

func newSubmitFailed(draftID string, err error) SubmitFailed {
	return SubmitFailed{base: base{message: "submission failed", err: err}, DraftID: draftID}
}
