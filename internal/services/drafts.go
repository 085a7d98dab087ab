package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/overdrive/techfest/internal/forms"
	"github.com/overdrive/techfest/internal/models"
)

// DraftStore keeps in-progress registrations between form posts.
type DraftStore struct {
	db *gorm.DB
}

func NewDraftStore(db *gorm.DB) *DraftStore {
	return &DraftStore{db: db}
}

// Save writes the draft for eventSlug. A draft that is being submitted cannot
// be edited and yields ErrSubmissionInFlight.
func (s *DraftStore) Save(ctx context.Context, eventSlug string, snap forms.Snapshot) error {
	rec := models.DraftRecord{
		ID:            snap.ID,
		EventSlug:     eventSlug,
		TeamName:      snap.TeamName,
		Members:       snap.Members,
		TermsAccepted: snap.TermsAccepted,
		Version:       snap.Version,
		Status:        models.DraftEditing,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur models.DraftRecord
		err := tx.Where("id = ?", snap.ID).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&rec).Error
		}
		if err != nil {
			return err
		}
		if cur.Status == models.DraftSubmitting {
			return ErrSubmissionInFlight
		}
		if cur.EventSlug != eventSlug {
			return fmt.Errorf("draft %s belongs to %s", snap.ID, cur.EventSlug)
		}
		return tx.Model(&models.DraftRecord{}).
			Where("id = ?", snap.ID).
			Select("TeamName", "Members", "TermsAccepted", "Version", "UpdatedAt").
			Updates(&rec).Error
	})
}

func (s *DraftStore) Load(ctx context.Context, id string) (models.DraftRecord, error) {
	var rec models.DraftRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return rec, err
}

// Delete discards a draft in any state. Deleting a missing draft is not an error.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DraftRecord{}).Error
}

// BeginSubmit flips the draft from editing to submitting, provided it is still
// at version.
func (s *DraftStore) BeginSubmit(ctx context.Context, id string, version int) error {
	res := s.db.WithContext(ctx).Model(&models.DraftRecord{}).
		Where("id = ? AND version = ? AND status = ?", id, version, models.DraftEditing).
		Update("status", models.DraftSubmitting)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	rec, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == models.DraftSubmitting {
		return ErrSubmissionInFlight
	}
	return ErrStaleDraft
}

// FinishSubmit settles a submission started with BeginSubmit. On success the
// draft is deleted; otherwise it returns to editing. Either way, a draft that
// no longer exists at version gives ErrDraftDiscarded.
func (s *DraftStore) FinishSubmit(ctx context.Context, id string, version int, ok bool) error {
	q := s.db.WithContext(ctx).
		Where("id = ? AND version = ? AND status = ?", id, version, models.DraftSubmitting)

	var res *gorm.DB
	if ok {
		res = q.Delete(&models.DraftRecord{})
	} else {
		res = q.Model(&models.DraftRecord{}).Update("status", models.DraftEditing)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDraftDiscarded
	}
	return nil
}

// PurgeStale deletes drafts untouched for longer than olderThan and returns how
// many went.
func (s *DraftStore) PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&models.DraftRecord{})
	return res.RowsAffected, res.Error
}

// Snapshot converts a stored record back into the form model's snapshot.
func Snapshot(rec models.DraftRecord) forms.Snapshot {
	return forms.Snapshot{
		ID:            rec.ID,
		Version:       rec.Version,
		TeamName:      rec.TeamName,
		Members:       rec.Members,
		TermsAccepted: rec.TermsAccepted,
	}
}
