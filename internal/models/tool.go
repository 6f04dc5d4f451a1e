package models

// ToolRecord is one catalog entry read from a spreadsheet row.
type ToolRecord struct {
	// RowNumber is the 1-based position of the row in the fetched range.
	RowNumber   int     `json:"row_number"`
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Description *string `json:"description"`
}

// HasDescription reports whether the row carried a non-empty third cell.
func (t ToolRecord) HasDescription() bool {
	return t.Description != nil && *t.Description != ""
}
