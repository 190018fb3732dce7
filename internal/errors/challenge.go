package errors

import "net/http"

var ErrChallenge = &Exception{
	Kind:       KindChallenge,
	Message:    "verification failed",
	StatusCode: http.StatusBadRequest,
}

var ErrNoChallengePending = &Exception{
	Kind:       KindChallenge,
	Reason:     "no_challenge_pending",
	Message:    "no verification code was requested for this email",
	StatusCode: http.StatusBadRequest,
}

var ErrChallengeExpired = &Exception{
	Kind:       KindChallenge,
	Reason:     "expired",
	Message:    "verification code has expired",
	StatusCode: http.StatusBadRequest,
}

var ErrCodeMismatch = &Exception{
	Kind:       KindChallenge,
	Reason:     "code_mismatch",
	Message:    "verification code does not match",
	StatusCode: http.StatusBadRequest,
}
