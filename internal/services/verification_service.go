package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "workforce-tracker.com/workforce-tracker/internal/errors"
	"workforce-tracker.com/workforce-tracker/internal/notifications"
	"workforce-tracker.com/workforce-tracker/internal/verification"
)

const verificationSubject = "Your verification code"

type VerificationService struct {
	store  verification.Store
	mailer notifications.Mailer
	logger *logrus.Logger
}

func NewVerificationService(store verification.Store, mailer notifications.Mailer, logger *logrus.Logger) *VerificationService {
	return &VerificationService{
		store:  store,
		mailer: mailer,
		logger: logger,
	}
}

// RequestEmailVerification issues a fresh code for email and mails it,
// replacing any code issued earlier.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.Validation("a valid email is required")
	}

	code, err := s.store.Issue(ctx, email)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("verification: issue code failed")
		return apperrors.ErrDependencyFailure
	}

	body := fmt.Sprintf(
		"Your verification code is %s. It expires in %d minutes.",
		code, int(verification.CodeTTL.Minutes()),
	)
	if err := s.mailer.SendMail(ctx, email, verificationSubject, body); err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("email", email).Error("verification: mail delivery failed")
		return apperrors.ErrDependencyFailure
	}

	return nil
}

func (s *VerificationService) ConfirmEmailVerification(ctx context.Context, email, code string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return apperrors.Validation("email and code are required")
	}

	err := s.store.Confirm(ctx, email, code)
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrChallenge) {
		return err
	}

	s.logger.WithContext(ctx).WithError(err).Error("verification: confirm failed")
	return apperrors.ErrDependencyFailure
}
