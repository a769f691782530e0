// Package query holds the read side of the user and account services.
package query

import (
	"errors"

	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/shared/errs"
)

func lookupError(err error, notFound string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NotFound(notFound)
	}
	return errs.Store("Server error", err)
}
