package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/MohnajibG/circet/internal/docstore"
	"github.com/MohnajibG/circet/internal/models"
	"github.com/MohnajibG/circet/internal/utils"
)

/* ------------------------------------------------------------------
   Append-only per-user log of door-knock events. Rows are never
   updated or deleted; daily counters and the export report are both
   derived from it.
------------------------------------------------------------------ */

type VisitLedger interface {
	// RecordVisit appends one immutable row under the acting user. It
	// does not touch the apartment; that mutation is a separate write
	// coordinated by the service layer.
	RecordVisit(ctx context.Context, userID, buildingID, apartmentID string, t time.Time) (*models.Visit, error)

	// ListVisitsInWindow is a one-shot read used by the export engine,
	// ordered by timestamp ascending, bounds inclusive.
	ListVisitsInWindow(ctx context.Context, userID string, start, end time.Time) ([]*models.Visit, error)

	// WatchTodayCount streams the user's door count for the current
	// local calendar day. The day window is computed once, when the
	// subscription is set up: a session that crosses midnight keeps
	// counting against the old window until it resubscribes.
	WatchTodayCount(ctx context.Context, userID string) *CountSubscription
}

type CountSubscription struct {
	updates chan int
	inner   *docstore.CollectionSubscription
}

func (s *CountSubscription) Updates() <-chan int { return s.updates }
func (s *CountSubscription) Cancel()             { s.inner.Cancel() }

// TodayRange returns the inclusive bounds of the current calendar day
// in the local time zone.
func TodayRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}

type visitLedger struct{ store docstore.Store }

func NewVisitLedger(store docstore.Store) VisitLedger {
	return &visitLedger{store: store}
}

func (l *visitLedger) RecordVisit(ctx context.Context, userID, buildingID, apartmentID string, t time.Time) (*models.Visit, error) {
	if userID == "" {
		return nil, utils.ErrAnonymousVisit
	}
	v := &models.Visit{
		BuildingID:  buildingID,
		ApartmentID: apartmentID,
		Timestamp:   t,
	}
	id, err := l.store.Create(ctx, visitsPath(userID), map[string]any{
		"buildingId":  v.BuildingID,
		"apartmentId": v.ApartmentID,
		"timestamp":   v.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	v.ID = id
	return v, nil
}

func (l *visitLedger) ListVisitsInWindow(ctx context.Context, userID string, start, end time.Time) ([]*models.Visit, error) {
	snap, err := l.store.List(ctx, visitsPath(userID))
	if err != nil {
		return nil, err
	}
	visits := make([]*models.Visit, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var v models.Visit
		if err := doc.Decode(&v); err != nil {
			return nil, err
		}
		if inWindow(v.Timestamp, start, end) {
			visits = append(visits, &v)
		}
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].Timestamp.Before(visits[j].Timestamp) })
	return visits, nil
}

func (l *visitLedger) WatchTodayCount(ctx context.Context, userID string) *CountSubscription {
	start, end := TodayRange(time.Now())

	inner := l.store.WatchCollection(ctx, visitsPath(userID))
	sub := &CountSubscription{
		updates: make(chan int),
		inner:   inner,
	}

	go func() {
		defer close(sub.updates)
		for snap := range inner.Updates() {
			count := 0
			for _, doc := range snap.Docs {
				var v models.Visit
				if err := doc.Decode(&v); err != nil {
					utils.Logger.WithError(err).WithField("user", userID).
						Error("Failed to decode visit snapshot")
					continue
				}
				if inWindow(v.Timestamp, start, end) {
					count++
				}
			}
			select {
			case sub.updates <- count:
			case <-ctx.Done():
				return
			}
		}
	}()
	return sub
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
