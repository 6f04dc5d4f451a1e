package models

import "strings"

// QuestionRequest for POST /ask
type QuestionRequest struct {
	Question string  `json:"question"`
	SheetID  *string `json:"sheet_id,omitempty"`
}

// ResolveSheetID returns the request's sheet id, falling back to fallback when absent or blank.
func (r *QuestionRequest) ResolveSheetID(fallback string) string {
	if r.SheetID != nil {
		if id := strings.TrimSpace(*r.SheetID); id != "" {
			return id
		}
	}
	return strings.TrimSpace(fallback)
}
