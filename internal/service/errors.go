package service

import (
	"errors"

	"github.com/law-comments-api/internal/apperr"
	"github.com/law-comments-api/internal/repository"
)

func notFound(resource, id string) error {
	return &apperr.NotFoundError{Resource: resource, ID: id}
}

// storageErr wraps a repository failure. Already classified errors pass through.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		nf *apperr.NotFoundError
		se *apperr.StorageError
	)
	if errors.As(err, &nf) || errors.As(err, &se) {
		return err
	}
	return apperr.Storage(op, err)
}

// itemError classifies a per-id failure of a bulk moderation
func itemError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("comment", id)
	}
	return storageErr("moderate comment", err)
}
