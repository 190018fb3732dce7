package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	model "workforce-tracker.com/workforce-tracker/internal/models"
	"workforce-tracker.com/workforce-tracker/internal/notifications"
	repository "workforce-tracker.com/workforce-tracker/internal/repositories"
	"workforce-tracker.com/workforce-tracker/internal/verification"
)

var (
	admin    = model.Caller{ID: "admin-1", Role: constants.RoleAdmin}
	employee = model.Caller{ID: "emp-1", Role: constants.RoleEmployee}
	other    = model.Caller{ID: "emp-2", Role: constants.RoleEmployee}
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(&model.User{}, &model.Task{}, &model.Comment{}, &model.Attachment{})
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	seedUsers(t, db)
	return db
}

func seedUsers(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []model.User{
		{ID: admin.ID, Name: "Alice Admin", Email: "alice@corp.test", Role: constants.RoleAdmin},
		{ID: employee.ID, Name: "Eve Employee", Email: "eve@corp.test", Role: constants.RoleEmployee, ChatID: strPtr("chat-eve")},
		{ID: other.ID, Name: "Oscar Other", Email: "oscar@corp.test", Role: constants.RoleEmployee},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

// steppingClock advances one second per reading so creation order is stable.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (p *recordingPublisher) Publish(event notifications.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return true
}

func (p *recordingPublisher) Events() []notifications.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifications.Event(nil), p.events...)
}

type serviceFixture struct {
	db      *gorm.DB
	repo    *repository.TaskRepository
	users   *repository.UserRepository
	store   *verification.MemoryStore
	events  *recordingPublisher
	service *TaskService
	logHook *test.Hook
	logger  *logrus.Logger
	clock   *steppingClock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := setupTestDB(t)
	logger, hook := test.NewNullLogger()
	clock := newSteppingClock()

	f := &serviceFixture{
		db:      db,
		repo:    repository.NewTaskRepository(db),
		users:   repository.NewUserRepository(db),
		store:   verification.NewMemoryStoreWithClock(clock.Now),
		events:  &recordingPublisher{},
		logHook: hook,
		logger:  logger,
		clock:   clock,
	}
	f.service = NewTaskService(f.repo, f.users, f.store, f.events, time.UTC, logger)
	f.service.now = clock.Now
	return f
}

// recordingChannel captures what the dispatcher would have delivered.
type recordingChannel struct {
	mu        sync.Mutex
	sent      map[string][]string
	failUntil int
	calls     int
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{sent: make(map[string][]string)}
}

func (c *recordingChannel) Send(_ context.Context, recipient, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	if c.calls <= c.failUntil {
		return fmt.Errorf("gateway unavailable")
	}
	c.sent[recipient] = append(c.sent[recipient], message)
	return nil
}

func (c *recordingChannel) Count(recipient string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent[recipient])
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
