package validators

import "strings"

// OptionalText trims free text from a request. Blank input becomes nil so an
// empty note is stored as absent rather than as "".
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*input)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
