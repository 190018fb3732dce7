package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	dto "workforce-tracker.com/workforce-tracker/internal/data_models"
	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
	model "workforce-tracker.com/workforce-tracker/internal/models"
	"workforce-tracker.com/workforce-tracker/internal/notifications"
	repository "workforce-tracker.com/workforce-tracker/internal/repositories"
	"workforce-tracker.com/workforce-tracker/internal/verification"
)

const (
	taskCreatedMessage  = "Task created"
	maxMutationAttempts = 3
)

// EventPublisher accepts notification events without waiting for delivery.
type EventPublisher interface {
	Publish(event notifications.Event) bool
}

type TaskService struct {
	repo     *repository.TaskRepository
	users    *repository.UserRepository
	verifier verification.Store
	events   EventPublisher
	location *time.Location
	logger   *logrus.Logger
	now      func() time.Time
}

func NewTaskService(
	repo *repository.TaskRepository,
	users *repository.UserRepository,
	verifier verification.Store,
	events EventPublisher,
	location *time.Location,
	logger *logrus.Logger,
) *TaskService {
	if location == nil {
		location = time.UTC
	}
	return &TaskService{
		repo:     repo,
		users:    users,
		verifier: verifier,
		events:   events,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *TaskService) ListTasks(ctx context.Context, caller model.Caller, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation("unknown status " + string(filter.Status))
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperrors.Validation("unknown priority " + string(filter.Priority))
	}
	if !caller.IsAdmin() {
		filter.Assignee = caller.ID
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.storageError(ctx, err, "list tasks")
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, caller model.Caller, id string) (*model.TaskDetail, error) {
	task, err := s.loadAccessible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.ListComments(ctx, task.ID)
	if err != nil {
		return nil, s.storageError(ctx, err, "list comments")
	}
	attachments, err := s.repo.ListAttachments(ctx, task.ID)
	if err != nil {
		return nil, s.storageError(ctx, err, "list attachments")
	}

	return &model.TaskDetail{
		Task:        *task,
		Comments:    comments,
		Attachments: attachments,
	}, nil
}

func (s *TaskService) CreateTask(ctx context.Context, caller model.Caller, req dto.CreateTaskRequest) (*model.Task, error) {
	task, attachments, err := s.buildTask(caller, req)
	if err != nil {
		return nil, err
	}

	if req.VerifyEmail && task.CustomerEmail != "" {
		verified, err := s.verifier.IsVerified(ctx, task.CustomerEmail)
		if err != nil {
			return nil, s.storageError(ctx, err, "check email verification")
		}
		if !verified {
			return nil, apperrors.ErrVerificationRequired
		}
	}

	if task.AssignedTo != nil {
		if _, err := s.users.FindByID(ctx, *task.AssignedTo); err != nil {
			return nil, s.storageError(ctx, err, "find assignee")
		}
	}

	comment := &model.Comment{
		AuthorID:        caller.ID,
		Text:            taskCreatedMessage,
		IsSystemMessage: true,
		CreatedAt:       task.CreatedAt,
	}
	if err := s.repo.CreateTask(ctx, task, comment, attachments); err != nil {
		return nil, s.storageError(ctx, err, "create task")
	}

	s.logger.WithFields(logrus.Fields{"task_id": task.ID, "caller": caller.ID}).Info("task service: task created")

	if task.AssignedTo != nil {
		s.publish(notifications.Event{Type: notifications.EventTaskAssigned, Task: *task, ActorID: caller.ID})
	}

	return task, nil
}

func (s *TaskService) buildTask(caller model.Caller, req dto.CreateTaskRequest) (*model.Task, []model.Attachment, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, nil, apperrors.Validation("title is required")
	}

	priority := constants.TaskPriority(req.Priority)
	if priority == "" {
		priority = constants.PriorityMedium
	}
	if !priority.Valid() {
		return nil, nil, apperrors.Validation("unknown priority " + req.Priority)
	}

	status := constants.TaskStatus(req.Status)
	if status == "" {
		status = constants.StatusOpen
	}
	if !status.Valid() {
		return nil, nil, apperrors.Validation("unknown status " + req.Status)
	}

	if err := validateSchedule(req.DueDate, req.DueTime, req.ReminderDate, req.ReminderTime); err != nil {
		return nil, nil, err
	}

	sendCompletion := true
	if req.SendCompletionEmail != nil {
		sendCompletion = *req.SendCompletionEmail
	}

	now := s.now().UTC()
	task := &model.Task{
		Title:               title,
		Description:         req.Description,
		Category:            req.Category,
		Priority:            priority,
		Status:              status,
		AssignedTo:          emptyToNil(req.AssignedTo),
		CreatedBy:           caller.ID,
		CustomerName:        strings.TrimSpace(req.CustomerName),
		CustomerEmail:       strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:       strings.TrimSpace(req.CustomerPhone),
		CompanyName:         strings.TrimSpace(req.CompanyName),
		DueDate:             emptyToNil(req.DueDate),
		DueTime:             emptyToNil(req.DueTime),
		ReminderDate:        emptyToNil(req.ReminderDate),
		ReminderTime:        emptyToNil(req.ReminderTime),
		SendCompletionEmail: sendCompletion,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if status == constants.StatusCompleted {
		markCompleted(task, caller, nil, now)
	}

	attachments := make([]model.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachment, err := buildAttachment(caller, a, now)
		if err != nil {
			return nil, nil, err
		}
		attachments = append(attachments, attachment)
	}

	return task, attachments, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, caller model.Caller, id string, patch dto.UpdateTaskRequest) (*model.Task, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	newAssignee := patch.AssignedTo != nil && *patch.AssignedTo != ""
	assigneeChecked := false

	var reassigned bool
	task, err := s.mutate(ctx, caller, id, func(task *model.Task) error {
		// Looked up after the access check so the error order stays stable.
		if newAssignee && !assigneeChecked {
			if _, err := s.users.FindByID(ctx, *patch.AssignedTo); err != nil {
				return s.storageError(ctx, err, "find assignee")
			}
			assigneeChecked = true
		}

		previous := ""
		if task.AssignedTo != nil {
			previous = *task.AssignedTo
		}
		applyPatch(task, patch)
		reassigned = newAssignee && previous != *patch.AssignedTo
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reassigned {
		s.publish(notifications.Event{Type: notifications.EventTaskAssigned, Task: *task, ActorID: caller.ID})
	}

	return task, nil
}

// SetStatus moves the task to status. Entering completed stamps the completion
// pair from the caller; leaving completed keeps the last stamp.
func (s *TaskService) SetStatus(
	ctx context.Context,
	caller model.Caller,
	id string,
	status constants.TaskStatus,
	resolutionNotes *string,
) (*model.Task, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("unknown status " + string(status))
	}

	task, err := s.mutate(ctx, caller, id, func(task *model.Task) error {
		task.Status = status
		if status == constants.StatusCompleted {
			markCompleted(task, caller, resolutionNotes, s.now().UTC())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		TaskID:          task.ID,
		AuthorID:        caller.ID,
		Text:            "Status changed to " + string(status),
		IsSystemMessage: true,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, s.storageError(ctx, err, "add status comment")
	}

	if status == constants.StatusCompleted && task.SendCompletionEmail {
		s.publish(notifications.Event{Type: notifications.EventTaskCompleted, Task: *task, ActorID: caller.ID})
	}

	return task, nil
}

func (s *TaskService) AddComment(ctx context.Context, caller model.Caller, id, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("comment text is required")
	}

	task, err := s.loadAccessible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		TaskID:    task.ID,
		AuthorID:  caller.ID,
		Text:      text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		return nil, s.storageError(ctx, err, "add comment")
	}
	return comment, nil
}

func (s *TaskService) AddAttachment(ctx context.Context, caller model.Caller, id string, req dto.AttachmentRequest) (*model.Attachment, error) {
	attachment, err := buildAttachment(caller, req, s.now().UTC())
	if err != nil {
		return nil, err
	}

	task, err := s.loadAccessible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	attachment.TaskID = task.ID
	if err := s.repo.AddAttachment(ctx, &attachment); err != nil {
		return nil, s.storageError(ctx, err, "add attachment")
	}
	return &attachment, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, caller model.Caller, id string) error {
	if !caller.IsAdmin() {
		return apperrors.ErrForbidden
	}

	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return s.storageError(ctx, err, "delete task")
	}

	s.logger.WithFields(logrus.Fields{"task_id": id, "caller": caller.ID}).Info("task service: task deleted")
	return nil
}

func (s *TaskService) ListCustomers(ctx context.Context, caller model.Caller) ([]model.Customer, error) {
	customers, err := s.repo.ListCustomers(ctx, scope(caller))
	if err != nil {
		return nil, s.storageError(ctx, err, "list customers")
	}
	return customers, nil
}

func (s *TaskService) Dashboard(ctx context.Context, caller model.Caller) (*model.Dashboard, error) {
	today := s.now().In(s.location).Format(constants.DateLayout)

	dashboard, err := s.repo.Dashboard(ctx, scope(caller), today, s.location)
	if err != nil {
		return nil, s.storageError(ctx, err, "dashboard")
	}
	return dashboard, nil
}

func (s *TaskService) Calendar(ctx context.Context, caller model.Caller, from, to string) ([]model.Task, error) {
	if !validDate(from) || !validDate(to) {
		return nil, apperrors.Validation("from and to must be dates in YYYY-MM-DD format")
	}
	if from > to {
		return nil, apperrors.Validation("from must not be after to")
	}

	tasks, err := s.repo.Calendar(ctx, from, to, scope(caller))
	if err != nil {
		return nil, s.storageError(ctx, err, "calendar")
	}
	return tasks, nil
}

// loadAccessible hides other people's tasks from employees. An employee asking
// for a missing task gets the same answer as for someone else's.
func (s *TaskService) loadAccessible(ctx context.Context, caller model.Caller, id string) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrTaskNotFound) && !caller.IsAdmin() {
			return nil, apperrors.ErrForbidden
		}
		return nil, s.storageError(ctx, err, "find task")
	}

	if !caller.IsAdmin() && !task.IsAssignedTo(caller.ID) {
		return nil, apperrors.ErrForbidden
	}
	return task, nil
}

// mutate reloads and reapplies fn when a concurrent writer bumped the version.
func (s *TaskService) mutate(ctx context.Context, caller model.Caller, id string, fn func(task *model.Task) error) (*model.Task, error) {
	for attempt := 1; ; attempt++ {
		task, err := s.loadAccessible(ctx, caller, id)
		if err != nil {
			return nil, err
		}

		if err := fn(task); err != nil {
			return nil, err
		}

		err = s.repo.Update(ctx, task)
		if err == nil {
			return task, nil
		}
		if !errors.Is(err, apperrors.ErrOptimisticLock) {
			return nil, s.storageError(ctx, err, "update task")
		}

		s.logger.WithFields(logrus.Fields{"task_id": id, "attempt": attempt}).Warn("task service: optimistic lock conflict")
		if attempt == maxMutationAttempts {
			return nil, apperrors.ErrOptimisticLock
		}
	}
}

func (s *TaskService) publish(event notifications.Event) {
	if s.events == nil {
		return
	}
	if !s.events.Publish(event) {
		s.logger.WithFields(logrus.Fields{
			"event":   event.Type,
			"task_id": event.Task.ID,
		}).Warn("task service: notification not queued")
	}
}

// storageError passes domain errors through and hides everything else behind
// a dependency failure, keeping the cause in the server log.
func (s *TaskService) storageError(ctx context.Context, err error, action string) error {
	var appErr *apperrors.Exception
	if errors.As(err, &appErr) {
		return err
	}
	s.logger.WithContext(ctx).WithError(err).Errorf("task service: %s failed", action)
	return apperrors.ErrDependencyFailure
}

func markCompleted(task *model.Task, caller model.Caller, notes *string, at time.Time) {
	completedBy := caller.ID
	task.CompletedAt = &at
	task.CompletedBy = &completedBy
	if notes != nil && strings.TrimSpace(*notes) != "" {
		resolution := strings.TrimSpace(*notes)
		task.ResolutionNotes = &resolution
	}
}

func applyPatch(task *model.Task, patch dto.UpdateTaskRequest) {
	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Category != nil {
		task.Category = *patch.Category
	}
	if patch.Priority != nil {
		task.Priority = constants.TaskPriority(*patch.Priority)
	}
	if patch.AssignedTo != nil {
		task.AssignedTo = emptyToNil(patch.AssignedTo)
	}
	if patch.CustomerName != nil {
		task.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.CustomerEmail != nil {
		task.CustomerEmail = strings.TrimSpace(*patch.CustomerEmail)
	}
	if patch.CustomerPhone != nil {
		task.CustomerPhone = strings.TrimSpace(*patch.CustomerPhone)
	}
	if patch.CompanyName != nil {
		task.CompanyName = strings.TrimSpace(*patch.CompanyName)
	}
	if patch.DueDate != nil {
		task.DueDate = emptyToNil(patch.DueDate)
	}
	if patch.DueTime != nil {
		task.DueTime = emptyToNil(patch.DueTime)
	}
	if patch.ReminderDate != nil {
		task.ReminderDate = emptyToNil(patch.ReminderDate)
	}
	if patch.ReminderTime != nil {
		task.ReminderTime = emptyToNil(patch.ReminderTime)
	}
	if patch.ResolutionNotes != nil {
		task.ResolutionNotes = emptyToNil(patch.ResolutionNotes)
	}
	if patch.SendCompletionEmail != nil {
		task.SendCompletionEmail = *patch.SendCompletionEmail
	}
}

func validatePatch(patch dto.UpdateTaskRequest) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperrors.Validation("title must not be empty")
	}
	if patch.Priority != nil && !constants.TaskPriority(*patch.Priority).Valid() {
		return apperrors.Validation("unknown priority " + *patch.Priority)
	}
	return validateSchedule(patch.DueDate, patch.DueTime, patch.ReminderDate, patch.ReminderTime)
}

func validateSchedule(dueDate, dueTime, reminderDate, reminderTime *string) error {
	for _, d := range []*string{dueDate, reminderDate} {
		if d != nil && *d != "" && !validDate(*d) {
			return apperrors.Validation("dates must use the YYYY-MM-DD format")
		}
	}
	for _, t := range []*string{dueTime, reminderTime} {
		if t != nil && *t != "" {
			if _, err := time.Parse(constants.TimeLayout, *t); err != nil {
				return apperrors.Validation("times must use the HH:MM format")
			}
		}
	}
	return nil
}

func buildAttachment(caller model.Caller, req dto.AttachmentRequest, at time.Time) (model.Attachment, error) {
	fileURL := strings.TrimSpace(req.FileURL)
	driveLink := strings.TrimSpace(req.DriveLink)
	if fileURL == "" && driveLink == "" {
		return model.Attachment{}, apperrors.Validation("attachment needs a file url or a drive link")
	}
	return model.Attachment{
		FileName:   strings.TrimSpace(req.FileName),
		FileType:   strings.TrimSpace(req.FileType),
		FileURL:    fileURL,
		DriveLink:  driveLink,
		UploadedBy: caller.ID,
		CreatedAt:  at,
	}, nil
}

func validDate(s string) bool {
	_, err := time.Parse(constants.DateLayout, s)
	return err == nil
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func scope(caller model.Caller) string {
	if caller.IsAdmin() {
		return ""
	}
	return caller.ID
}
