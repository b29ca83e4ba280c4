package cases

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/sopflow/internal/runtime"
	"github.com/aretw0/sopflow/pkg/domain"
)

// DefaultMaxInputSize bounds every string submitted with a transition.
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized input is
// rejected, never truncated.
func SanitizeInput(input string, limit int) (string, error) {
	if limit > 0 && len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// sanitizeRequest cleans the actor, role, document names and string field
// values of req. Audit trails and CSV exports only ever see cleaned text.
func sanitizeRequest(req runtime.TransitionRequest, limit int) (runtime.TransitionRequest, error) {
	out := req
	reject := func(what string, err error) (runtime.TransitionRequest, error) {
		return req, &domain.TransitionError{
			Cause:   fmt.Errorf("%w: %w", domain.ErrInvalidInput, err),
			EdgeID:  req.EdgeID,
			Message: fmt.Sprintf("Invalid %s: %v", what, err),
			Missing: []string{what},
		}
	}

	var err error
	if out.Actor, err = SanitizeInput(req.Actor, limit); err != nil {
		return reject("actor", err)
	}
	if out.Role, err = SanitizeInput(req.Role, limit); err != nil {
		return reject("role", err)
	}

	if req.DocumentsAttached != nil {
		out.DocumentsAttached = make([]string, len(req.DocumentsAttached))
		for i, d := range req.DocumentsAttached {
			if out.DocumentsAttached[i], err = SanitizeInput(d, limit); err != nil {
				return reject("document", err)
			}
		}
	}

	if req.FieldValues != nil {
		out.FieldValues = make(map[string]any, len(req.FieldValues))
		for k, v := range req.FieldValues {
			s, ok := v.(string)
			if !ok {
				out.FieldValues[k] = v
				continue
			}
			if out.FieldValues[k], err = SanitizeInput(s, limit); err != nil {
				return reject(k, err)
			}
		}
	}
	return out, nil
}
