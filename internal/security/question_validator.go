package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// injectionPatterns match attempts to override the system prompt. Questions
// about tools legitimately mention shells, git or curl, so only instruction
// hijacking is screened.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?(previous|above|prior)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?(previous|above|prior)\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(the\s+)?(previous|above|prior)\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?(the\s+)?(previous|above|prior)\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)instead\s+of\s+the\s+above`),
	regexp.MustCompile(`(?i)(reveal|print|show|repeat)\s+(me\s+)?(your|the)\s+system\s+prompt`),
	regexp.MustCompile(`(?i)you\s+are\s+no\s+longer\s+`),
}

// QuestionValidator checks /ask questions before any upstream call is made.
type QuestionValidator struct {
	maxLength int
	screening bool
}

func NewQuestionValidator(maxLength int, screening bool) *QuestionValidator {
	return &QuestionValidator{maxLength: maxLength, screening: screening}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate rejects empty questions, questions longer than the limit (counted
// in characters) and, with screening on, prompt-injection phrases.
func (v *QuestionValidator) Validate(question string) ValidationResult {
	if strings.TrimSpace(question) == "" {
		return ValidationResult{Valid: false, Message: "question cannot be empty"}
	}

	if n := utf8.RuneCountInString(question); v.maxLength > 0 && n > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("question too long: %d chars (max %d)", n, v.maxLength),
		}
	}

	if !v.screening {
		return ValidationResult{Valid: true, Message: "ok"}
	}

	for _, pattern := range injectionPatterns {
		if pattern.MatchString(question) {
			return ValidationResult{
				Valid:   false,
				Message: "question contains instructions that cannot be processed",
			}
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}
