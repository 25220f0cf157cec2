package repository

import (
	"errors"
	"fmt"
)

var (
	ErrStorage          = errors.New("storage")
	ErrNotFound         = fmt.Errorf("%w.not_found", ErrStorage)
	ErrAlreadyPublished = fmt.Errorf("%w.already_published", ErrStorage)
	ErrPersist          = fmt.Errorf("%w.persist", ErrStorage)
)
