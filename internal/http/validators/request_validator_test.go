package validators

import (
	"errors"
	"strings"
	"testing"

	dto "workforce-tracker.com/workforce-tracker/internal/data_models"
	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
)

func TestValidate_CreateTaskRequest(t *testing.T) {
	v := New()

	if err := v.Validate(&dto.CreateTaskRequest{Title: "ok"}); err != nil {
		t.Fatalf("expected minimal request to pass, got %v", err)
	}

	due := "05/01/2024"
	err := v.Validate(&dto.CreateTaskRequest{
		Priority:      "critical",
		CustomerEmail: "nope",
		DueDate:       &due,
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	for _, want := range []string{"title is required", "priority must be one of", "customer_email must be a valid email", "due_date must match"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidate_NestedAttachments(t *testing.T) {
	v := New()

	err := v.Validate(&dto.CreateTaskRequest{
		Title:       "x",
		Attachments: []dto.AttachmentRequest{{FileURL: "not a url"}},
	})
	if err == nil || !strings.Contains(err.Error(), "attachments[0].file_url") {
		t.Errorf("expected nested field path in error, got %v", err)
	}
}

func TestValidate_ConfirmCode(t *testing.T) {
	v := New()

	if err := v.Validate(&dto.ConfirmEmailRequest{Email: "a@b.co", Code: "ABC12"}); err == nil {
		t.Error("expected short code to be rejected")
	}
	if err := v.Validate(&dto.ConfirmEmailRequest{Email: "a@b.co", Code: "ABC123"}); err != nil {
		t.Errorf("expected valid code to pass, got %v", err)
	}
}
