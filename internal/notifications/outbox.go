package notifications

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	model "workforce-tracker.com/workforce-tracker/internal/models"
)

type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Outbox queues workflow events and lets a fixed set of workers turn them into
// dispatcher calls, off the request path. An event identical to one still
// queued is dropped, and so is any event published while the queue is full.
type Outbox struct {
	queue      chan Event
	wg         sync.WaitGroup
	enqueued   sync.Map
	mu         sync.RWMutex
	closed     bool
	users      UserDirectory
	dispatcher *Dispatcher
	logger     *logrus.Logger
}

func NewOutbox(
	dispatcher *Dispatcher,
	users UserDirectory,
	workers int,
	queueSize int,
	logger *logrus.Logger,
) *Outbox {
	o := &Outbox{
		queue:      make(chan Event, queueSize),
		users:      users,
		dispatcher: dispatcher,
		logger:     logger,
	}

	for i := 1; i <= workers; i++ {
		o.wg.Add(1)
		go o.worker(i)
	}

	return o
}

func (o *Outbox) Publish(event Event) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}

	key := event.key()
	if _, loaded := o.enqueued.LoadOrStore(key, struct{}{}); loaded {
		return false
	}

	select {
	case o.queue <- event:
		return true
	default:
		o.enqueued.Delete(key)
		o.logger.WithFields(logrus.Fields{
			"event":   event.Type,
			"task_id": event.Task.ID,
		}).Warn("outbox: queue full, dropping event")
		return false
	}
}

func (o *Outbox) worker(workerID int) {
	defer o.wg.Done()

	o.logger.Debugf("outbox worker %d started", workerID)

	for event := range o.queue {
		o.handle(workerID, event)
	}

	o.logger.Debugf("outbox worker %d stopped", workerID)
}

func (o *Outbox) handle(workerID int, event Event) bool {
	ctx := context.Background()
	defer o.enqueued.Delete(event.key())

	log := o.logger.WithFields(logrus.Fields{
		"worker":  workerID,
		"event":   event.Type,
		"task_id": event.Task.ID,
	})

	actor, err := o.users.FindByID(ctx, event.ActorID)
	if err != nil {
		log.Warnf("outbox: actor %s lookup failed: %v", event.ActorID, err)
		actor = &model.User{ID: event.ActorID}
	}

	switch event.Type {
	case EventTaskAssigned:
		if event.Task.AssignedTo == nil {
			return false
		}
		assignee, err := o.users.FindByID(ctx, *event.Task.AssignedTo)
		if err != nil {
			log.Warnf("outbox: assignee lookup failed: %v", err)
			return false
		}
		return o.dispatcher.NotifyAssignment(ctx, &event.Task, assignee, actor)
	case EventTaskCompleted:
		return o.dispatcher.NotifyCompletion(ctx, &event.Task, actor)
	default:
		log.Warn("outbox: unknown event type")
		return false
	}
}

// Shutdown stops accepting work and waits for queued events to drain.
func (o *Outbox) Shutdown(ctx context.Context) {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("outbox shut down cleanly")
	case <-ctx.Done():
		o.logger.Warn("outbox shutdown timed out")
	}
}
