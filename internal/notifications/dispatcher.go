package notifications

import (
	"context"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"

	model "workforce-tracker.com/workforce-tracker/internal/models"
)

type Dispatcher struct {
	channel           Channel
	templates         *Templates
	operationsChannel string
	timeout           time.Duration
	logger            *logrus.Logger
}

func NewDispatcher(
	channel Channel,
	templates *Templates,
	operationsChannel string,
	timeout time.Duration,
	logger *logrus.Logger,
) *Dispatcher {
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &Dispatcher{
		channel:           channel,
		templates:         templates,
		operationsChannel: operationsChannel,
		timeout:           timeout,
		logger:            logger,
	}
}

func (d *Dispatcher) NotifyAssignment(ctx context.Context, task *model.Task, assignee, assigner *model.User) bool {
	if !assignee.Reachable() {
		return false
	}

	data := taskData(task)
	data.Assignee = assignee.DisplayName()
	data.Actor = assigner.DisplayName()

	return d.deliver(ctx, "assignment", d.templates.assignment, *assignee.ChatID, task.ID, data)
}

func (d *Dispatcher) NotifyReminder(ctx context.Context, task *model.Task, assignee *model.User) bool {
	if !assignee.Reachable() {
		return false
	}

	data := taskData(task)
	data.Assignee = assignee.DisplayName()

	return d.deliver(ctx, "reminder", d.templates.reminder, *assignee.ChatID, task.ID, data)
}

// NotifyCompletion goes to the operations channel rather than the assignee.
func (d *Dispatcher) NotifyCompletion(ctx context.Context, task *model.Task, completer *model.User) bool {
	if d.operationsChannel == "" {
		return false
	}

	data := taskData(task)
	data.Actor = completer.DisplayName()

	return d.deliver(ctx, "completion", d.templates.completion, d.operationsChannel, task.ID, data)
}

func (d *Dispatcher) deliver(ctx context.Context, kind string, tmpl *template.Template, recipient, taskID string, data messageData) bool {
	log := d.logger.WithFields(logrus.Fields{
		"notification": kind,
		"task_id":      taskID,
		"recipient":    recipient,
	})

	message, err := render(tmpl, data)
	if err != nil {
		log.Errorf("dispatcher: render failed: %v", err)
		return false
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.channel.Send(sendCtx, recipient, message); err != nil {
		log.Warnf("dispatcher: send failed: %v", err)
		return false
	}

	log.Debug("dispatcher: delivered")
	return true
}

func taskData(task *model.Task) messageData {
	data := messageData{
		TaskID:   task.ID,
		Title:    task.Title,
		Customer: task.CustomerName,
		Company:  task.CompanyName,
		Due:      formatDue(task.DueDate, task.DueTime),
		Priority: strings.ToUpper(string(task.Priority)),
		Status:   string(task.Status),
	}
	if task.ResolutionNotes != nil {
		data.Resolution = *task.ResolutionNotes
	}
	return data
}

func formatDue(date, clock *string) string {
	if date == nil || *date == "" {
		return "not set"
	}
	if clock == nil || *clock == "" {
		return *date
	}
	return *date + " " + *clock
}
