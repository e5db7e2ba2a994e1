package game

import (
	"errors"

	"github.com/scythe504/guessword-backend/internal"
)

var (
	ErrDuplicateCode        = errors.New("room code already in use")
	ErrRoomNotFound         = errors.New("room not found")
	ErrForbidden            = errors.New("forbidden")
	ErrEmptySecret          = errors.New("secret word must not be empty")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrQuestionLimitReached = errors.New("question limit reached")
	ErrInvalidCode          = errors.New("room code must not be empty")
	ErrBadRequest           = errors.New("malformed request")
)

// ErrorCode maps an error to the code sent in system:error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateCode):
		return internal.ErrCodeDuplicateCode
	case errors.Is(err, ErrRoomNotFound):
		return internal.ErrCodeRoomNotFound
	case errors.Is(err, ErrForbidden):
		return internal.ErrCodeForbidden
	case errors.Is(err, ErrEmptySecret):
		return internal.ErrCodeEmptySecret
	case errors.Is(err, ErrNotYourTurn):
		return internal.ErrCodeNotYourTurn
	case errors.Is(err, ErrQuestionLimitReached):
		return internal.ErrCodeQuestionLimitReached
	case errors.Is(err, ErrInvalidCode):
		return internal.ErrCodeInvalidCode
	case errors.Is(err, ErrBadRequest):
		return internal.ErrCodeBadRequest
	default:
		return internal.ErrCodeInternal
	}
}
