package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	"workforce-tracker.com/workforce-tracker/internal/lease"
	model "workforce-tracker.com/workforce-tracker/internal/models"
	repository "workforce-tracker.com/workforce-tracker/internal/repositories"
)

type ReminderNotifier interface {
	NotifyReminder(ctx context.Context, task *model.Task, assignee *model.User) bool
}

// ReminderSweeper delivers each due reminder once. reminder_sent is only set
// after a successful send, so a failed send is retried by the next sweep.
type ReminderSweeper struct {
	repo      *repository.TaskRepository
	users     *repository.UserRepository
	notifier  ReminderNotifier
	location  *time.Location
	interval  time.Duration
	batchSize int
	logger    *logrus.Logger
	now       func() time.Time
	lease     lease.Lease

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewReminderSweeper(
	repo *repository.TaskRepository,
	users *repository.UserRepository,
	notifier ReminderNotifier,
	location *time.Location,
	interval time.Duration,
	batchSize int,
	logger *logrus.Logger,
) *ReminderSweeper {
	if location == nil {
		location = time.UTC
	}
	return &ReminderSweeper{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		location:  location,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// UseLease makes every sweep take l first, so that several instances sharing a
// database do not send the same reminder twice.
func (s *ReminderSweeper) UseLease(l lease.Lease) {
	s.lease = l
}

func (s *ReminderSweeper) Start() {
	s.wg.Add(1)
	go s.loop()
}

func (s *ReminderSweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.SweepOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// SweepOnce sends every reminder due at this moment and returns how many were
// delivered. Errors are logged; the caller may ignore them.
func (s *ReminderSweeper) SweepOnce(ctx context.Context) (int, error) {
	if s.lease != nil {
		held, err := s.lease.Acquire(ctx)
		if err != nil {
			s.logger.WithError(err).Error("reminders: failed to take sweep lease")
			return 0, err
		}
		if !held {
			s.logger.Debug("reminders: another instance is sweeping")
			return 0, nil
		}
		defer func() {
			if err := s.lease.Release(ctx); err != nil {
				s.logger.WithError(err).Warn("reminders: failed to release sweep lease")
			}
		}()
	}

	local := s.now().In(s.location)
	today := local.Format(constants.DateLayout)
	clock := local.Format(constants.TimeLayout)

	due, sent := 0, 0
	var cursor *model.ReminderCursor
	for {
		tasks, err := s.repo.ListDueReminders(ctx, today, clock, cursor, s.batchSize)
		if err != nil {
			s.logger.WithError(err).Error("reminders: failed to list due reminders")
			return sent, err
		}

		for i := range tasks {
			if s.remind(ctx, &tasks[i]) {
				sent++
			}
		}
		due += len(tasks)

		// Failed sends stay unflagged; page on from the last row seen.
		if len(tasks) < s.batchSize || ctx.Err() != nil {
			break
		}
		cursor = tasks[len(tasks)-1].ReminderCursor()
	}

	if due > 0 {
		s.logger.WithFields(logrus.Fields{"due": due, "sent": sent}).Info("reminders: sweep finished")
	}
	return sent, nil
}

func (s *ReminderSweeper) remind(ctx context.Context, task *model.Task) bool {
	log := s.logger.WithField("task_id", task.ID)

	if task.AssignedTo == nil {
		log.Debug("reminders: task has no assignee")
		return false
	}

	assignee, err := s.users.FindByID(ctx, *task.AssignedTo)
	if err != nil {
		log.Warnf("reminders: assignee lookup failed: %v", err)
		return false
	}
	if !assignee.Reachable() {
		log.Debug("reminders: assignee has no channel identity")
		return false
	}

	if !s.notifier.NotifyReminder(ctx, task, assignee) {
		return false
	}

	marked, err := s.repo.MarkReminderSent(ctx, task.ID)
	if err != nil {
		log.Errorf("reminders: failed to mark reminder sent: %v", err)
		return true
	}
	if !marked {
		log.Warn("reminders: reminder was already marked sent")
	}
	return true
}

func (s *ReminderSweeper) Shutdown() {
	close(s.stop)
	s.wg.Wait()
}
