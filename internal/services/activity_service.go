package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"taskhub/internal/metrics"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type ActivityService struct {
	store repositories.Store
	now   Clock
}

func NewActivityService(store repositories.Store, now Clock) *ActivityService {
	return &ActivityService{
		store: store,
		now:   defaultClock(now),
	}
}

func (s *ActivityService) List(ctx context.Context) ([]models.Activity, error) {
	var res []models.Activity
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = tx.Activities()
		return err
	})
	return res, err
}

// Save creates an activity when Id is empty and replaces it otherwise.
func (s *ActivityService) Save(ctx context.Context, a models.Activity) (*models.Activity, error) {
	if strings.TrimSpace(a.Title) == "" || a.Amount.IsNegative() {
		return nil, observe("admin.save_activity", models.ErrInvalidAmount)
	}
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		if a.Id == "" {
			existing, err := tx.Activities()
			if err != nil {
				return err
			}
			next := 1
			for _, e := range existing {
				if n, err := strconv.Atoi(e.Id); err == nil && n >= next {
					next = n + 1
				}
			}
			a.Id = strconv.Itoa(next)
		} else if _, err := tx.ActivityById(a.Id); errors.Is(err, repositories.ErrNotFound) {
			return models.ErrActivityNotFound
		} else if err != nil {
			return err
		}
		return tx.SaveActivity(&a)
	})
	if err != nil {
		return nil, observe("admin.save_activity", err)
	}
	return &a, observe("admin.save_activity", nil)
}

func (s *ActivityService) Delete(ctx context.Context, id string) error {
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		err := tx.DeleteActivity(id)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrActivityNotFound
		}
		return err
	})
	return observe("admin.delete_activity", err)
}

func (s *ActivityService) Submit(ctx context.Context, userId int64, activityId, sampleImage, notes string) (*models.ActivitySubmission, error) {
	var sub *models.ActivitySubmission
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		user, err := loadUser(tx, userId)
		if err != nil {
			return err
		}
		activity, err := tx.ActivityById(activityId)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrActivityNotFound
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(sampleImage) == "" {
			return models.ErrProofRequired
		}
		sub = &models.ActivitySubmission{
			UserId:          user.UserId(),
			UserEmail:       user.Email,
			ActivityId:      activity.Id,
			ActivityTitle:   activity.Title,
			SampleImage:     sampleImage,
			CompletionNotes: notes,
			Status:          models.REQUEST_PENDING,
			CreatedAt:       s.now(),
		}
		return tx.CreateSubmission(sub)
	})
	if err != nil {
		return nil, observe("activity.submit", err)
	}
	return sub, observe("activity.submit", nil)
}

func pendingSubmission(tx repositories.Tx, id int64) (*models.ActivitySubmission, error) {
	sub, err := tx.SubmissionById(id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if sub.Status != models.REQUEST_PENDING {
		return nil, models.ErrRequestNotPending
	}
	return sub, nil
}

// Approve pays the activity reward into the withdrawal balance.
func (s *ActivityService) Approve(ctx context.Context, id int64) (*models.ActivitySubmission, error) {
	var (
		sub      *models.ActivitySubmission
		activity *models.Activity
	)
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		sub, err = pendingSubmission(tx, id)
		if err != nil {
			return err
		}
		activity, err = tx.ActivityById(sub.ActivityId)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ErrActivityNotFound
		}
		if err != nil {
			return err
		}
		user, err := loadUser(tx, sub.UserId)
		if err != nil {
			return err
		}
		if err := postEntry(tx, user, models.ACCOUNT_WITHDRAWAL, activity.Amount, models.TX_SYSTEM_BONUS, activity.Title, s.now()); err != nil {
			return err
		}
		if err := saveUser(tx, user); err != nil {
			return err
		}
		sub.Status = models.REQUEST_APPROVED
		return tx.UpdateSubmission(sub)
	})
	if err != nil {
		return nil, observe("activity.approve", err)
	}
	metrics.AddLedgerVolume(models.TX_SYSTEM_BONUS, activity.Amount)
	return sub, observe("activity.approve", nil)
}

func (s *ActivityService) Reject(ctx context.Context, id int64) (*models.ActivitySubmission, error) {
	var sub *models.ActivitySubmission
	err := s.store.Atomic(ctx, func(tx repositories.Tx) error {
		var err error
		sub, err = pendingSubmission(tx, id)
		if err != nil {
			return err
		}
		sub.Status = models.REQUEST_REJECTED
		return tx.UpdateSubmission(sub)
	})
	if err != nil {
		return nil, observe("activity.reject", err)
	}
	return sub, observe("activity.reject", nil)
}

func (s *ActivityService) Submissions(ctx context.Context, f repositories.Filter) ([]models.ActivitySubmission, error) {
	var res []models.ActivitySubmission
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		var err error
		res, err = tx.Submissions(f)
		return err
	})
	return res, err
}
