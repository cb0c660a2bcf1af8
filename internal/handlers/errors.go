package handlers

import (
	"errors"

	"github.com/gonzacha/nordia-pos/internal/domain"
	apperrors "github.com/gonzacha/nordia-pos/pkg/errors"
)

// toStandardError maps domain errors onto the HTTP error body. Anything
// unrecognized becomes an InternalError.
func toStandardError(err error) *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return apperrors.NewCommitConflict(conflict.Error())
	}

	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		if stockErr.Kind == domain.ErrProductNotFound {
			return apperrors.NewProductNotFound(stockErr.ProductID)
		}
		return apperrors.NewInsufficientStock(stockErr.ProductID, stockErr.ProductName, stockErr.Available, stockErr.Requested)
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		code := validationErr.Kind.Code
		if validationErr.Kind == domain.ErrInvalidProduct {
			code = "ValidationError"
		}
		return apperrors.NewStandardError(code, validationErr.Kind.Message, validationErr.Reason)
	}

	if errors.Is(err, domain.ErrSaleNotFound) {
		return apperrors.NewStandardError("SaleNotFound", "sale not found", "")
	}

	return apperrors.NewInternalError("internal server error", err)
}
