package service

import (
	"errors"
	"fmt"

	"github.com/d60-Lab/social-publisher/internal/repository"
)

// Error kinds surfaced by the services. Wrap them with PublishError or
// fmt.Errorf("%w") so callers can classify with errors.Is.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTarget      = errors.New("invalid target page")
	ErrVerificationFailed = errors.New("page verification failed")
	ErrUploadFailed       = errors.New("image upload failed")
	ErrDuplicateMedia     = errors.New("duplicate media")
	ErrPublishFailed      = errors.New("publish failed")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyPublished   = errors.New("post already published")
)

// PublishError is a classified failure with a user-facing message. Detail
// carries platform-side context when there is any.
type PublishError struct {
	Kind    error
	Message string
	Detail  string
	Err     error
}

func (e *PublishError) Error() string {
	if e.Detail != "" {
		return e.Message + ". " + e.Detail
	}
	return e.Message
}

func (e *PublishError) Is(target error) bool { return target == e.Kind }

func (e *PublishError) Unwrap() error { return e.Err }

func newError(kind error, format string, args ...any) *PublishError {
	return &PublishError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// fromRepository maps storage sentinels onto service kinds.
func fromRepository(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return &PublishError{Kind: ErrNotFound, Message: what + " not found", Err: err}
	case errors.Is(err, repository.ErrAlreadyPublished):
		return &PublishError{Kind: ErrAlreadyPublished, Message: what + " is already published", Err: err}
	default:
		return err
	}
}
