package postgres

import (
	"errors"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// ClassifyError maps repository errors to read failure kinds for the retry wrapper
func ClassifyError(err error) cache.ErrorKind {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrExpenseNotFound),
		errors.Is(err, domain.ErrPaymentNotFound),
		errors.Is(err, domain.ErrNotFound):
		return cache.KindNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return cache.KindValidation
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbidden):
		return cache.KindPermission
	case pgconn.Timeout(err):
		return cache.KindTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			// connection exception
			return cache.KindNetwork
		case strings.HasPrefix(pgErr.Code, "28"), pgErr.Code == "42501":
			return cache.KindPermission
		case pgErr.Code == "57014":
			// query_canceled by statement_timeout
			return cache.KindTimeout
		}
		return cache.KindUnknown
	}

	if pgconn.SafeToRetry(err) {
		return cache.KindNetwork
	}
	return cache.ClassifyError(err)
}
