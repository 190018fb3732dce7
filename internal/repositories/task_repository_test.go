package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
	model "workforce-tracker.com/workforce-tracker/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.Task{}, &model.Comment{}, &model.Attachment{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTask(title string) *model.Task {
	now := time.Now().UTC()
	return &model.Task{
		Title:               title,
		Priority:            constants.PriorityMedium,
		Status:              constants.StatusOpen,
		CreatedBy:           "admin-1",
		SendCompletionEmail: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func ptr(s string) *string {
	return &s
}

func TestCreateTask_StoresCommentAndAttachments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Create")
	comment := &model.Comment{AuthorID: "admin-1", Text: "Task created", IsSystemMessage: true}
	attachments := []model.Attachment{{FileURL: "https://files.test/a", UploadedBy: "admin-1"}}

	if err := repo.CreateTask(ctx, task, comment, attachments); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == "" || task.Version != 1 {
		t.Fatalf("expected id and version 1, got %q / %d", task.ID, task.Version)
	}

	comments, _ := repo.ListComments(ctx, task.ID)
	stored, _ := repo.ListAttachments(ctx, task.ID)
	if len(comments) != 1 || comments[0].TaskID != task.ID {
		t.Errorf("unexpected comments %+v", comments)
	}
	if len(stored) != 1 || stored[0].ID == "" {
		t.Errorf("unexpected attachments %+v", stored)
	}
}

func TestCreateTask_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	first := newTask("First")
	if err := repo.CreateTask(ctx, first, nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Reusing the comment id makes the second insert fail after the task row.
	comment := &model.Comment{AuthorID: "admin-1", Text: "dup"}
	if err := repo.AddComment(ctx, comment); err != nil {
		t.Fatalf("comment: %v", err)
	}

	second := newTask("Second")
	dup := &model.Comment{ID: comment.ID, AuthorID: "admin-1", Text: "dup"}
	if err := repo.CreateTask(ctx, second, dup, nil); err == nil {
		t.Fatal("expected create to fail")
	}

	if _, err := repo.FindByID(ctx, second.ID); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("task row should have been rolled back, got %v", err)
	}
}

func TestUpdate_OptimisticLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Lock")
	if err := repo.CreateTask(ctx, task, nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	a, _ := repo.FindByID(ctx, task.ID)
	b, _ := repo.FindByID(ctx, task.ID)

	a.Status = constants.StatusInProgress
	if err := repo.Update(ctx, a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if a.Version != 2 {
		t.Errorf("expected version 2, got %d", a.Version)
	}

	b.Status = constants.StatusCancelled
	if err := repo.Update(ctx, b); !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Fatalf("expected optimistic lock error, got %v", err)
	}

	stored, _ := repo.FindByID(ctx, task.ID)
	if stored.Status != constants.StatusInProgress {
		t.Errorf("stale write must not land, status is %s", stored.Status)
	}
}

func TestUpdate_LeavesReminderFlagAlone(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Flag")
	task.ReminderDate = ptr("2024-05-01")
	if err := repo.CreateTask(ctx, task, nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, _ := repo.FindByID(ctx, task.ID)
	if ok, err := repo.MarkReminderSent(ctx, task.ID); err != nil || !ok {
		t.Fatalf("mark: %v %v", ok, err)
	}

	loaded.Title = "Renamed"
	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, _ := repo.FindByID(ctx, task.ID)
	if !stored.ReminderSent {
		t.Error("an update with a stale copy must not reset reminder_sent")
	}
}

func seedReminderUsers(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []model.User{
		{ID: "emp-1", Name: "Eve", Email: "eve@corp.test", Role: constants.RoleEmployee, ChatID: ptr("chat-eve")},
		{ID: "emp-2", Name: "Oscar", Email: "oscar@corp.test", Role: constants.RoleEmployee},
		{ID: "emp-3", Name: "Blank", Email: "blank@corp.test", Role: constants.RoleEmployee, ChatID: ptr("")},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func TestListDueReminders(t *testing.T) {
	db := setupTestDB(t)
	seedReminderUsers(t, db)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	create := func(title string, assignee, date, clock *string, status constants.TaskStatus) string {
		t.Helper()
		task := newTask(title)
		task.AssignedTo = assignee
		task.ReminderDate = date
		task.ReminderTime = clock
		task.Status = status
		if err := repo.CreateTask(ctx, task, nil, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
		return task.ID
	}

	eve := ptr("emp-1")
	create("yesterday", eve, ptr("2024-04-30"), ptr("18:00"), constants.StatusOpen)
	create("today-earlier", eve, ptr("2024-05-01"), ptr("09:00"), constants.StatusPending)
	create("today-no-time", eve, ptr("2024-05-01"), nil, constants.StatusInProgress)
	create("today-later", eve, ptr("2024-05-01"), ptr("11:00"), constants.StatusOpen)
	create("tomorrow", eve, ptr("2024-05-02"), nil, constants.StatusOpen)
	create("completed", eve, ptr("2024-04-01"), nil, constants.StatusCompleted)
	create("none", eve, nil, nil, constants.StatusOpen)
	create("unassigned", nil, ptr("2024-04-01"), nil, constants.StatusOpen)
	create("no-chat", ptr("emp-2"), ptr("2024-04-01"), nil, constants.StatusOpen)
	create("blank-chat", ptr("emp-3"), ptr("2024-04-01"), nil, constants.StatusOpen)
	create("unknown-user", ptr("ghost"), ptr("2024-04-01"), nil, constants.StatusOpen)
	sent := create("already-sent", eve, ptr("2024-04-01"), nil, constants.StatusOpen)
	if _, err := repo.MarkReminderSent(ctx, sent); err != nil {
		t.Fatalf("mark: %v", err)
	}

	tasks, err := repo.ListDueReminders(ctx, "2024-05-01", "10:00", nil, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	want := []string{"yesterday", "today-no-time", "today-earlier"}
	if strings.Join(titles, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, titles)
	}

	limited, _ := repo.ListDueReminders(ctx, "2024-05-01", "10:00", nil, 2)
	if len(limited) != 2 || limited[0].Title != "yesterday" {
		t.Errorf("limit or ordering not honored: %+v", limited)
	}

	rest, err := repo.ListDueReminders(ctx, "2024-05-01", "10:00", limited[1].ReminderCursor(), 2)
	if err != nil {
		t.Fatalf("list after cursor: %v", err)
	}
	if len(rest) != 1 || rest[0].Title != "today-earlier" {
		t.Errorf("expected the page after the cursor to hold today-earlier, got %+v", rest)
	}

	if _, err := repo.ListDueReminders(ctx, "2024-05-01", "10:00", nil, 0); err == nil {
		t.Error("expected an error for a non-positive limit")
	}
}

func TestListDueReminders_CursorBreaksTiesByID(t *testing.T) {
	db := setupTestDB(t)
	seedReminderUsers(t, db)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	for _, id := range []string{"task-c", "task-a", "task-b"} {
		task := newTask(id)
		task.ID = id
		task.AssignedTo = ptr("emp-1")
		task.ReminderDate = ptr("2024-04-30")
		if err := repo.CreateTask(ctx, task, nil, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var seen []string
	var cursor *model.ReminderCursor
	for page := 0; page < 5; page++ {
		tasks, err := repo.ListDueReminders(ctx, "2024-05-01", "10:00", cursor, 1)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(tasks) == 0 {
			break
		}
		seen = append(seen, tasks[0].ID)
		cursor = tasks[0].ReminderCursor()
	}

	if strings.Join(seen, ",") != "task-a,task-b,task-c" {
		t.Errorf("expected every task exactly once in id order, got %v", seen)
	}
}

func TestMarkReminderSent_Once(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Once")
	if err := repo.CreateTask(ctx, task, nil, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := repo.MarkReminderSent(ctx, task.ID)
	if err != nil || !first {
		t.Fatalf("expected the first mark to flip the flag, got %v %v", first, err)
	}
	second, err := repo.MarkReminderSent(ctx, task.ID)
	if err != nil || second {
		t.Errorf("expected the second mark to be a no-op, got %v %v", second, err)
	}
}

func TestDeleteTask_Cascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := newTask("Delete")
	comment := &model.Comment{AuthorID: "admin-1", Text: "Task created", IsSystemMessage: true}
	attachments := []model.Attachment{{DriveLink: "https://drive.test/x", UploadedBy: "admin-1"}}
	if err := repo.CreateTask(ctx, task, comment, attachments); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	comments, _ := repo.ListComments(ctx, task.ID)
	stored, _ := repo.ListAttachments(ctx, task.ID)
	if len(comments) != 0 || len(stored) != 0 {
		t.Errorf("expected children to be removed, got %d comments and %d attachments", len(comments), len(stored))
	}

	if err := repo.DeleteTask(ctx, task.ID); !errors.Is(err, apperrors.ErrTaskNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	if err := db.Create(&model.User{ID: "u-1", Name: "Uma", Email: "uma@corp.test", Role: constants.RoleEmployee}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	user, err := users.FindByID(ctx, "u-1")
	if err != nil || user.Name != "Uma" {
		t.Fatalf("unexpected result %+v %v", user, err)
	}

	if _, err := users.FindByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected user not found, got %v", err)
	}
}
