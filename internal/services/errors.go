package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrExternalTool = errors.New("external tool error")
	ErrToolMissing  = errors.New("external tool unavailable")
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrTimeout      = errors.New("timeout")
	ErrInternal     = errors.New("internal error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Outcome is the tagged result of a single subtitle request.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeToolFailure
	OutcomeInputError
	OutcomeInternalError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeToolFailure:
		return "tool_failure"
	case OutcomeInputError:
		return "input_error"
	default:
		return "internal_error"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(name string) (Outcome, bool) {
	for o := OutcomeSuccess; o <= OutcomeInternalError; o++ {
		if o.String() == name {
			return o, true
		}
	}
	return OutcomeInternalError, false
}

// Classify maps a pipeline error onto exactly one Outcome. A missing tool is a
// deployment defect rather than a per-request failure, so it lands in
// OutcomeInternalError even though it is also an external tool problem.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrValidation):
		return OutcomeInputError
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrToolMissing):
		return OutcomeInternalError
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrExternalTool):
		return OutcomeToolFailure
	default:
		return OutcomeInternalError
	}
}

// SanitizeDetail condenses raw tool diagnostics into a single printable line
// no longer than limit bytes. Lines carrying an "ERROR:" prefix are preferred
// because yt-dlp emits its actionable reason there; otherwise the last
// non-empty line is used. A limit <= 0 disables truncation.
func SanitizeDetail(raw string, limit int) string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if line = stripControl(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	var picked []string
	for _, line := range lines {
		if strings.HasPrefix(line, "ERROR:") {
			picked = append(picked, line)
		}
	}
	if len(picked) == 0 {
		picked = lines[len(lines)-1:]
	}
	summary := strings.Join(picked, "; ")
	if limit > 0 && len(summary) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(summary[cut]) {
			cut--
		}
		summary = strings.TrimSpace(summary[:cut]) + "..."
	}
	return summary
}

func stripControl(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	for _, r := range line {
		switch {
		case r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
