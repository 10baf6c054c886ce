package service

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/timetable-api/internal/timetable"
	"github.com/noah-isme/timetable-api/internal/workload"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// domainError maps timetable and workload sentinels onto API errors.
func domainError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, timetable.ErrSlotOccupied):
		return appErrors.Wrap(err, appErrors.ErrSlotOccupied.Code, appErrors.ErrSlotOccupied.Status, err.Error())
	case errors.Is(err, timetable.ErrRevertPrecondition):
		return appErrors.Wrap(err, appErrors.ErrRevertPrecondition.Code, appErrors.ErrRevertPrecondition.Status, err.Error())
	case errors.Is(err, timetable.ErrEntryNotFound), errors.Is(err, timetable.ErrLogEntryNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	case errors.Is(err, timetable.ErrMalformedEntry):
		return appErrors.Wrap(err, appErrors.ErrMalformedPayload.Code, appErrors.ErrMalformedPayload.Status, err.Error())
	case errors.Is(err, timetable.ErrInvalidTiming),
		errors.Is(err, timetable.ErrUnknownViewMode),
		errors.Is(err, workload.ErrMalformedOptionKey),
		errors.Is(err, workload.ErrDuplicateOption),
		errors.Is(err, workload.ErrSlotIndex),
		errors.Is(err, workload.ErrKindMismatch):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, verrs[0].Error())
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
}
