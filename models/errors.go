package models

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist (or is not
	// visible to the caller).
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the referenced question does not belong to
	// the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound indicates no attempt exists for the given public id.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrEmailTaken is returned on registration with an already-used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when login email/password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
