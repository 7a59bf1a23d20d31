package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"

	"sitebook/importer"
	"sitebook/services"
)

// User-facing import messages.
const (
	msgUnreadable   = "Failed to parse file. Make sure it's a valid Excel or CSV file."
	msgEmpty        = "The file appears to be empty or could not be parsed."
	msgImportFailed = "Failed to import"
)

// errorResponse maps an import or editor error to a status code and the
// message shown to the user. Unknown errors are persistence failures.
func errorResponse(err error) (int, string) {
	var verrs validation.Errors
	switch {
	case errors.Is(err, importer.ErrMissingNameColumn):
		return http.StatusUnprocessableEntity, importer.ErrMissingNameColumn.Error()
	case errors.Is(err, importer.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Unsupported file format. Upload an .xlsx, .xls or .csv file."
	case errors.Is(err, importer.ErrUnreadableFile):
		return http.StatusBadRequest, msgUnreadable
	case errors.Is(err, importer.ErrEmptyTable):
		return http.StatusBadRequest, msgEmpty
	case errors.Is(err, services.ErrSessionNotFound):
		return http.StatusNotFound, "Import session expired. Upload the file again."
	case errors.Is(err, services.ErrProjectNotFound):
		return http.StatusNotFound, "Project not found"
	case errors.Is(err, services.ErrNoActiveBOQ):
		return http.StatusNotFound, "This project has no active BOQ"
	case errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound, "Item not found"
	case errors.Is(err, services.ErrBOQLocked):
		return http.StatusConflict, "This BOQ has been superseded and can no longer be edited"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "Import cancelled"
	case errors.As(err, &verrs):
		return http.StatusBadRequest, verrs.Error()
	}
	return http.StatusInternalServerError, msgImportFailed
}

// failWith logs server-side failures and renders the mapped error.
func failWith(e *core.RequestEvent, name string, err error) error {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s: %v", name, err)
	}
	return ErrorToast(e, status, message)
}
