package language

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var tagPattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z0-9]{2,8})*$`)

// ErrInvalid reports a language code that cannot be used for a request.
var ErrInvalid = errors.New("invalid language code")

type entry struct {
	code2   string // ISO 639-1 (2-letter)
	code3   string // ISO 639-2 primary (3-letter)
	display string // Human-readable name
}

var languages = []entry{
	{"ru", "rus", "Russian"},
	{"en", "eng", "English"},
	{"uk", "ukr", "Ukrainian"},
	{"es", "spa", "Spanish"},
	{"fr", "fra", "French"},
	{"de", "deu", "German"},
	{"it", "ita", "Italian"},
	{"pt", "por", "Portuguese"},
	{"ja", "jpn", "Japanese"},
	{"ko", "kor", "Korean"},
	{"zh", "zho", "Chinese"},
	{"ar", "ara", "Arabic"},
	{"hi", "hin", "Hindi"},
	{"tr", "tur", "Turkish"},
	{"pl", "pol", "Polish"},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
	}
}

// Validate checks that code is a usable subtitle language and returns it
// trimmed. Case is preserved because yt-dlp track names are case sensitive.
func Validate(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}
	if !tagPattern.MatchString(code) {
		return "", fmt.Errorf("%w: %q is not a language tag", ErrInvalid, code)
	}
	primary, _, _ := strings.Cut(code, "-")
	if _, err := language.ParseBase(strings.ToLower(primary)); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalid, code, err)
	}
	return code, nil
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the code itself when no name is known.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	primary, _, _ := strings.Cut(strings.ToLower(code), "-")
	if e, ok := byCode[primary]; ok {
		return e.display
	}
	if base, err := language.ParseBase(primary); err == nil {
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	return code
}
