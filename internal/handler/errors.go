package handler

import "errors"

var (
	errNoSheetID = errors.New("no sheet id provided and no default spreadsheet configured")
	errNoTools   = errors.New("no tools found in the spreadsheet")
)
