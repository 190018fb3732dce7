package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	dto "workforce-tracker.com/workforce-tracker/internal/data_models"
	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
	middleware "workforce-tracker.com/workforce-tracker/internal/http/middlewares"
	model "workforce-tracker.com/workforce-tracker/internal/models"
	"workforce-tracker.com/workforce-tracker/internal/notifications"
	"workforce-tracker.com/workforce-tracker/internal/services"
)

type Handler struct {
	taskService         *services.TaskService
	verificationService *services.VerificationService
	users               notifications.UserDirectory
	hub                 *notifications.Hub
	upgrader            websocket.Upgrader
	logger              *logrus.Logger
}

// NewHandler wires the HTTP surface. hub may be nil, in which case the
// websocket stream is reported as unavailable.
func NewHandler(
	taskService *services.TaskService,
	verificationService *services.VerificationService,
	users notifications.UserDirectory,
	hub *notifications.Hub,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		taskService:         taskService,
		verificationService: verificationService,
		users:               users,
		hub:                 hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) ListTasks(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var q dto.ListTasksQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return apperrors.Validation("invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), caller, model.TaskFilter{
		Status:   constants.TaskStatus(q.Status),
		Priority: constants.TaskPriority(q.Priority),
		Assignee: q.Assignee,
		Customer: q.Customer,
		DueFrom:  q.DueFrom,
		DueTo:    q.DueTo,
		Search:   q.Search,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

func (h *Handler) CreateTask(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req dto.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), caller, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *Handler) GetTask(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	detail, err := h.taskService.GetTask(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) UpdateTask(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) SetStatus(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req dto.SetStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.SetStatus(
		c.Request().Context(),
		caller,
		c.Param("id"),
		constants.TaskStatus(req.Status),
		req.ResolutionNotes,
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) AddComment(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req dto.CommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.taskService.AddComment(c.Request().Context(), caller, c.Param("id"), req.Text)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, comment)
}

func (h *Handler) AddAttachment(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var req dto.AttachmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	attachment, err := h.taskService.AddAttachment(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, attachment)
}

func (h *Handler) DeleteTask(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), caller, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RequestEmailVerification(c echo.Context) error {
	var req dto.EmailVerificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.verificationService.RequestEmailVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, echo.Map{"status": "code_sent"})
}

func (h *Handler) ConfirmEmailVerification(c echo.Context) error {
	var req dto.ConfirmEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.verificationService.ConfirmEmailVerification(c.Request().Context(), req.Email, req.Code); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "verified"})
}

func (h *Handler) ListCustomers(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	customers, err := h.taskService.ListCustomers(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":     len(customers),
		"customers": customers,
	})
}

func (h *Handler) Dashboard(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	dashboard, err := h.taskService.Dashboard(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) Calendar(c echo.Context) error {
	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	var q dto.CalendarQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return apperrors.Validation("invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	tasks, err := h.taskService.Calendar(c.Request().Context(), caller, q.From, q.To)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count": len(tasks),
		"tasks": tasks,
	})
}

// Notifications upgrades to a websocket and streams the caller's messages
// until the client disconnects.
func (h *Handler) Notifications(c echo.Context) error {
	if h.hub == nil {
		return apperrors.NotFound("websocket notifications are not enabled")
	}

	caller, err := middleware.CallerFrom(c)
	if err != nil {
		return err
	}

	user, err := h.users.FindByID(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}
	if !user.Reachable() {
		return apperrors.Validation("user has no chat identity to receive notifications")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", caller.ID).Warn("http: websocket upgrade failed")
		return nil
	}

	h.hub.Serve(*user.ChatID, conn)
	return nil
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("invalid JSON payload")
	}
	return c.Validate(req)
}
