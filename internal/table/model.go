package table

import (
	"context"
	"time"

	"github.com/docker/go-units"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bigredeye/schoolbook/internal/cache"
	"github.com/bigredeye/schoolbook/internal/models"
)

// Keys is the fixed order of the three reads: students, columns, grade records.
var Keys = []string{cache.KeyStudents, cache.KeyColumns, cache.KeyLessons}

type Store interface {
	Ensure(key string) <-chan struct{}
	Snapshot(key string) cache.Snapshot
}

// View is the combined state of the three reads.
type View struct {
	IsLoading bool
	IsError   bool
	Err       error

	// Set only when every read succeeded.
	Students *models.Students
	Columns  *models.Columns
	Records  *models.GradeRecords

	// UpdatedAt is the oldest fetch time among the three.
	UpdatedAt time.Time
}

func (v View) Ready() bool {
	return !v.IsLoading && !v.IsError
}

// Age renders how long ago the oldest collection was fetched.
func (v View) Age(now time.Time) string {
	if v.UpdatedAt.IsZero() {
		return ""
	}
	return units.HumanDuration(now.Sub(v.UpdatedAt)) + " ago"
}

// Aggregate combines snapshots given in Keys order.
func Aggregate(snapshots ...cache.Snapshot) View {
	view := View{}
	for _, snapshot := range snapshots {
		switch snapshot.Status {
		case cache.StatusIdle, cache.StatusLoading:
			view.IsLoading = true
		case cache.StatusError:
			view.IsError = true
			if view.Err == nil {
				view.Err = snapshot.Err
			}
		}
		if !snapshot.UpdatedAt.IsZero() && (view.UpdatedAt.IsZero() || snapshot.UpdatedAt.Before(view.UpdatedAt)) {
			view.UpdatedAt = snapshot.UpdatedAt
		}
	}
	if !view.Ready() || len(snapshots) != len(Keys) {
		return view
	}

	var err error
	if view.Students, err = models.As[models.Student](snapshots[0].Key, snapshots[0].Data); err != nil {
		return failed(view, err)
	}
	if view.Columns, err = models.As[models.Column](snapshots[1].Key, snapshots[1].Data); err != nil {
		return failed(view, err)
	}
	if view.Records, err = models.As[models.GradeRecord](snapshots[2].Key, snapshots[2].Data); err != nil {
		return failed(view, err)
	}
	return view
}

func failed(view View, err error) View {
	return View{IsError: true, Err: err, UpdatedAt: view.UpdatedAt}
}

type Model struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger
}

func NewModel(store Store, timeout time.Duration, logger *zap.Logger) *Model {
	return &Model{
		store:   store,
		timeout: timeout,
		logger:  logger.Named("table"),
	}
}

// Load starts the reads that are not fresh and waits for them until ctx or
// the model timeout expires. Reads keep running after Load returns.
func (m *Model) Load(ctx context.Context) View {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, key := range Keys {
		done := m.store.Ensure(key)
		g.Go(func() error {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Debug("Reads are still pending", zap.Error(err))
	}

	return m.Peek()
}

// Peek aggregates the current snapshots without starting reads.
func (m *Model) Peek() View {
	snapshots := make([]cache.Snapshot, 0, len(Keys))
	for _, key := range Keys {
		snapshots = append(snapshots, m.store.Snapshot(key))
	}
	return Aggregate(snapshots...)
}
