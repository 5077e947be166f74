package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	slugMaxLength = 32
	idTimeLayout  = "2006-01-02-15-04-05"
	suffixDigits  = "0123456789"
)

var slugWordRegex = regexp.MustCompile(`[a-z0-9]+`)

// Slugify turns free text into a lowercase dash-joined slug of whole words,
// at most maxLength characters long. A single overlong first word is cut.
func Slugify(text string, maxLength int) string {
	words := slugWordRegex.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return "session"
	}

	parts := make([]string, 0, len(words))
	length := 0
	for _, word := range words {
		projected := length + len(word)
		if length > 0 {
			projected++
		}
		if projected > maxLength {
			if len(parts) == 0 {
				parts = append(parts, word[:maxLength])
			}
			break
		}
		parts = append(parts, word)
		length = projected
	}
	if len(parts) == 0 {
		return "session"
	}
	return strings.Join(parts, "-")
}

// NewID derives a session id from the creation time and the prompt.
func NewID(prompt string, now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format(idTimeLayout), Slugify(prompt, slugMaxLength))
}

// disambiguate appends a short random numeric suffix to id.
func disambiguate(id string) (string, error) {
	suffix, err := gonanoid.Generate(suffixDigits, 3)
	if err != nil {
		return "", fmt.Errorf("failed to generate id suffix: %w", err)
	}
	return id + "-" + suffix, nil
}

// ValidateID rejects ids that could escape the sessions root.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidID)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("%w: id cannot contain '..'", ErrInvalidID)
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("%w: id cannot contain path separators", ErrInvalidID)
	}
	if strings.Contains(id, "\x00") {
		return fmt.Errorf("%w: id cannot contain null bytes", ErrInvalidID)
	}
	return nil
}
