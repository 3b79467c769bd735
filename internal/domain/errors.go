package domain

import (
	"errors"
	"fmt"
)

// ─── Error Kinds ────────────────────────────────────────────────────────────
// Every error returned by the app layer wraps exactly one of these kinds,
// so transports can map with errors.Is without knowing the details.

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Gamification errors
	ErrUnknownDifficulty = fmt.Errorf("%w: unknown difficulty tier", ErrInvalidArgument)
	ErrInvalidDayStart   = fmt.Errorf("%w: day start must be HH:MM or HH:MM:SS", ErrInvalidArgument)
	ErrInvalidTimestamp  = fmt.Errorf("%w: malformed timestamp", ErrInvalidArgument)
	ErrInvalidWindow     = fmt.Errorf("%w: window end precedes window start", ErrInvalidArgument)
	ErrStreakOutOfOrder  = fmt.Errorf("%w: completion date precedes last task date", ErrPreconditionFailed)

	// Task errors
	ErrTaskNotFound         = fmt.Errorf("%w: task", ErrNotFound)
	ErrTaskAlreadyCompleted = fmt.Errorf("%w: task already completed", ErrPreconditionFailed)
	ErrTaskDeleted          = fmt.Errorf("%w: task was deleted", ErrPreconditionFailed)
	ErrTaskNotPending       = fmt.Errorf("%w: only pending tasks can be edited", ErrPreconditionFailed)
	ErrReflectionRequired   = fmt.Errorf("%w: reflection is required to complete a task", ErrInvalidArgument)

	// User errors
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
	ErrUserExists         = fmt.Errorf("%w: username or email already registered", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrExpiredToken       = fmt.Errorf("%w: token has expired", ErrUnauthorized)

	// Competition errors
	ErrCompetitionNotFound = fmt.Errorf("%w: competition", ErrNotFound)
	ErrTooManyParticipants = fmt.Errorf("%w: too many participants", ErrInvalidArgument)
	ErrStartInPast         = fmt.Errorf("%w: start date must be in the future", ErrInvalidArgument)
	ErrUnknownParticipant  = fmt.Errorf("%w: one or more participant ids are unknown", ErrInvalidArgument)
	ErrCompetitionEnded    = fmt.Errorf("%w: competition has ended", ErrPreconditionFailed)
	ErrCompetitionFull     = fmt.Errorf("%w: competition is full", ErrPreconditionFailed)
	ErrAlreadyParticipant  = fmt.Errorf("%w: already a participant", ErrConflict)
	ErrNotCreator          = fmt.Errorf("%w: only the creator can end a competition", ErrForbidden)
)
