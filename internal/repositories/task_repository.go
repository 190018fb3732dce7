package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
	model "workforce-tracker.com/workforce-tracker/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

const priorityRankSQL = "CASE priority WHEN 'urgent' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 ELSE 4 END"

// A reminder without a time sorts and compares as the start of its day.
const reminderTimeSQL = "COALESCE(tasks.reminder_time, '')"

var closedStatuses = []constants.TaskStatus{constants.StatusCompleted, constants.StatusCancelled}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateTask stores the task, its opening system comment and any attachments
// in one transaction.
func (r *TaskRepository) CreateTask(ctx context.Context, task *model.Task, comment *model.Comment, attachments []model.Attachment) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Version = 1

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Comments", "Attachments").Create(task).Error; err != nil {
			return err
		}

		if comment != nil {
			prepareComment(comment, task.ID)
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
		}

		for i := range attachments {
			prepareAttachment(&attachments[i], task.ID)
		}
		if len(attachments) > 0 {
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.Task{}), filter).
		Order(priorityRankSQL).
		Order("CASE WHEN due_date IS NULL OR due_date = '' THEN 1 ELSE 0 END").
		Order("due_date asc").
		Order("created_at desc")

	var tasks []model.Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) applyFilter(query *gorm.DB, filter model.TaskFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Assignee != "" {
		query = query.Where("assigned_to = ?", filter.Assignee)
	}
	if filter.Customer != "" {
		like := containsPattern(filter.Customer)
		query = query.Where(
			"LOWER(customer_name) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(customer_email) LIKE ?",
			like, like, like,
		)
	}
	if filter.DueFrom != "" {
		query = query.Where("due_date >= ?", filter.DueFrom)
	}
	if filter.DueTo != "" {
		query = query.Where("due_date <= ?", filter.DueTo)
	}
	if filter.Search != "" {
		like := containsPattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	return query
}

// Update writes every mutable column guarded by the task version. reminder_sent
// is deliberately absent: only MarkReminderSent may change it.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	updatedAt := time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND version = ?", task.ID, task.Version).
		Updates(map[string]interface{}{
			"title":                 task.Title,
			"description":           task.Description,
			"category":              task.Category,
			"priority":              task.Priority,
			"status":                task.Status,
			"assigned_to":           task.AssignedTo,
			"completed_by":          task.CompletedBy,
			"completed_at":          task.CompletedAt,
			"customer_name":         task.CustomerName,
			"customer_email":        task.CustomerEmail,
			"customer_phone":        task.CustomerPhone,
			"company_name":          task.CompanyName,
			"due_date":              task.DueDate,
			"due_time":              task.DueTime,
			"reminder_date":         task.ReminderDate,
			"reminder_time":         task.ReminderTime,
			"resolution_notes":      task.ResolutionNotes,
			"send_completion_email": task.SendCompletionEmail,
			"updated_at":            updatedAt,
			"version":               gorm.Expr("version + 1"),
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return apperrors.ErrOptimisticLock
	}

	task.Version++
	task.UpdatedAt = updatedAt
	return nil
}

// DeleteTask removes the task with its comments and attachments.
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.Attachment{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrTaskNotFound
		}
		return nil
	})
}

func (r *TaskRepository) AddComment(ctx context.Context, comment *model.Comment) error {
	prepareComment(comment, comment.TaskID)
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *TaskRepository) AddAttachment(ctx context.Context, attachment *model.Attachment) error {
	prepareAttachment(attachment, attachment.TaskID)
	return r.db.WithContext(ctx).Create(attachment).Error
}

// ListComments returns the thread oldest first.
func (r *TaskRepository) ListComments(ctx context.Context, taskID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&comments).Error
	return comments, err
}

// ListAttachments returns attachments newest first.
func (r *TaskRepository) ListAttachments(ctx context.Context, taskID string) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at desc").
		Find(&attachments).Error
	return attachments, err
}

// ListDueReminders returns open tasks whose reminder moment is at or before
// today/now and whose assignee has a chat identity. A reminder date without a
// time is due from the start of that day. Results are ordered by reminder
// moment then id; a non-nil after resumes past that position.
func (r *TaskRepository) ListDueReminders(ctx context.Context, today, now string, after *model.ReminderCursor, limit int) ([]model.Task, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	query := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("tasks.*").
		Joins("JOIN users ON users.id = tasks.assigned_to").
		Where("users.chat_id IS NOT NULL AND users.chat_id <> ''").
		Where("tasks.reminder_sent = ?", false).
		Where("tasks.status NOT IN ?", closedStatuses).
		Where("tasks.reminder_date IS NOT NULL AND tasks.reminder_date <> ''").
		Where(
			"tasks.reminder_date < ? OR (tasks.reminder_date = ? AND "+reminderTimeSQL+" <= ?)",
			today, today, now,
		)
	if after != nil {
		query = query.Where(
			"tasks.reminder_date > ? OR (tasks.reminder_date = ? AND "+reminderTimeSQL+" > ?) OR "+
				"(tasks.reminder_date = ? AND "+reminderTimeSQL+" = ? AND tasks.id > ?)",
			after.Date, after.Date, after.Time, after.Date, after.Time, after.ID,
		)
	}

	var tasks []model.Task
	err := query.
		Order("tasks.reminder_date asc").
		Order(reminderTimeSQL + " asc").
		Order("tasks.id asc").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkReminderSent flips reminder_sent once. It reports false when another
// sweep already flipped it.
func (r *TaskRepository) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND reminder_sent = ?", id, false).
		Updates(map[string]interface{}{
			"reminder_sent": true,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TaskRepository) ListCustomers(ctx context.Context, assignee string) ([]model.Customer, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{}).
		Distinct("customer_name", "customer_email", "customer_phone", "company_name").
		Where("customer_name <> '' OR company_name <> ''")
	if assignee != "" {
		query = query.Where("assigned_to = ?", assignee)
	}

	var customers []model.Customer
	err := query.Order("company_name asc").Order("customer_name asc").Scan(&customers).Error
	return customers, err
}

type groupCount struct {
	Bucket string
	Total  int64
}

// Dashboard aggregates task counts. today is a calendar date in loc.
func (r *TaskRepository) Dashboard(ctx context.Context, assignee, today string, loc *time.Location) (*model.Dashboard, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&model.Task{})
		if assignee != "" {
			query = query.Where("assigned_to = ?", assignee)
		}
		return query
	}

	dashboard := &model.Dashboard{
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
	}

	var byStatus []groupCount
	if err := scoped().Select("status AS bucket, COUNT(*) AS total").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		dashboard.ByStatus[row.Bucket] = row.Total
		dashboard.Total += row.Total
	}

	var byPriority []groupCount
	if err := scoped().Select("priority AS bucket, COUNT(*) AS total").Group("priority").Scan(&byPriority).Error; err != nil {
		return nil, err
	}
	for _, row := range byPriority {
		dashboard.ByPriority[row.Bucket] = row.Total
	}

	if err := scoped().
		Where("status NOT IN ?", closedStatuses).
		Where("due_date IS NOT NULL AND due_date <> '' AND due_date < ?", today).
		Count(&dashboard.Overdue).Error; err != nil {
		return nil, err
	}

	if err := scoped().
		Where("status NOT IN ?", closedStatuses).
		Where("due_date = ?", today).
		Count(&dashboard.DueToday).Error; err != nil {
		return nil, err
	}

	start, err := time.ParseInLocation(constants.DateLayout, today, loc)
	if err != nil {
		return nil, err
	}
	if err := scoped().
		Where("status = ?", constants.StatusCompleted).
		Where("completed_at >= ? AND completed_at < ?", start.UTC(), start.AddDate(0, 0, 1).UTC()).
		Count(&dashboard.CompletedToday).Error; err != nil {
		return nil, err
	}

	return dashboard, nil
}

// Calendar lists tasks due within [from, to], inclusive.
func (r *TaskRepository) Calendar(ctx context.Context, from, to, assignee string) ([]model.Task, error) {
	query := r.db.WithContext(ctx).
		Where("due_date >= ? AND due_date <= ?", from, to)
	if assignee != "" {
		query = query.Where("assigned_to = ?", assignee)
	}

	var tasks []model.Task
	err := query.Order("due_date asc").Order("due_time asc").Order(priorityRankSQL).Find(&tasks).Error
	return tasks, err
}

func prepareComment(c *model.Comment, taskID string) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.TaskID = taskID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

func prepareAttachment(a *model.Attachment, taskID string) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.TaskID = taskID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}

func containsPattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
