package domain

import "errors"

var (
	// ErrMissingUser is returned when no user id accompanies a submission.
	ErrMissingUser = errors.New("user id is missing in the request")
	// ErrMissingFields is returned when the quiz id or answer key is absent.
	ErrMissingFields = errors.New("missing required fields")
	// ErrMissingAnswers is returned when the submission carries no answers.
	ErrMissingAnswers = errors.New("no answers provided")
	// ErrAlreadyCompleted rejects submissions for a quiz the user already passed.
	ErrAlreadyCompleted = errors.New("you have already completed this quiz successfully")
	// ErrAttemptsExceeded rejects submissions once the attempt cap is used up.
	ErrAttemptsExceeded = errors.New("you have reached the maximum number of attempts for this quiz")
	// ErrStoreUnavailable wraps ledger or score store failures; safe to retry.
	ErrStoreUnavailable = errors.New("submission store unavailable")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSubmissionNotFound indicates a requested submission id is unknown.
	ErrSubmissionNotFound = errors.New("submission not found")
)
