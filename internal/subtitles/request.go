package subtitles

import (
	"fmt"
	"net/url"
	"strings"

	"subgrab/internal/language"
	"subgrab/internal/services"
)

// Request describes a single subtitle fetch. Empty Language and Format fall
// back to the service defaults.
type Request struct {
	URL      string
	Language string
	Format   string
}

// Result is the outcome of a successful fetch.
type Result struct {
	Text string
	// Format is the representation of Text. For raw requests it is the
	// extension actually produced, which may be the declared fallback.
	Format   Format
	Language string
}

// RequestError describes why a request was rejected before any work started.
// Its text is safe to return to the caller verbatim.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	switch {
	case e.Err == nil:
		return e.Message
	case e.Message == "":
		return e.Err.Error()
	default:
		return e.Message + ": " + e.Err.Error()
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// rejectRequest tags a RequestError with services.ErrValidation.
func rejectRequest(message string, err error) error {
	return services.Wrap(services.ErrValidation, "subtitles", "request", "", &RequestError{Message: message, Err: err})
}

type validatedRequest struct {
	url      string
	language string
	format   Format
}

func validateRequest(req Request, defaultLanguage string, defaultFormat Format) (validatedRequest, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return validatedRequest{}, rejectRequest("url is required", nil)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return validatedRequest{}, rejectRequest(fmt.Sprintf("url %q is not an absolute URL", rawURL), nil)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return validatedRequest{}, rejectRequest(fmt.Sprintf("url scheme %q is not supported", parsed.Scheme), nil)
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = defaultLanguage
	}
	lang, err = language.Validate(lang)
	if err != nil {
		return validatedRequest{}, rejectRequest("", err)
	}

	format := defaultFormat
	if strings.TrimSpace(req.Format) != "" {
		if format, err = ParseFormat(req.Format); err != nil {
			return validatedRequest{}, err
		}
	}

	return validatedRequest{url: rawURL, language: lang, format: format}, nil
}
