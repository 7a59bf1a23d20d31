package importer

import "errors"

var (
	// ErrUnreadableFile is returned when the workbook bytes cannot be decoded.
	ErrUnreadableFile = errors.New("failed to parse file. Make sure it's a valid Excel or CSV file")

	// ErrUnsupportedFormat is returned for extensions other than xlsx, xls and csv.
	ErrUnsupportedFormat = errors.New("unsupported file format: must be .xlsx, .xls or .csv")

	// ErrEmptyTable is returned when neither the smart parser nor record
	// extraction produced any usable row.
	ErrEmptyTable = errors.New("the file appears to be empty or could not be parsed")

	// ErrMissingNameColumn is returned by the schedule parser when no
	// activity/task name column can be resolved.
	ErrMissingNameColumn = errors.New("Could not find activity/task name column")
)
