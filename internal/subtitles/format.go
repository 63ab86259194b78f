package subtitles

import (
	"fmt"
	"strings"
)

// Format identifies both a requested output representation and the
// extension of a file the tool produced.
type Format string

const (
	FormatVTT  Format = "vtt"
	FormatSRT  Format = "srt"
	FormatText Format = "txt"
)

type formatSpec struct {
	// subFormat is the yt-dlp --sub-format preference list.
	subFormat string
	// candidates are tried in order; the requested format always leads.
	candidates []Format
}

// formatTable is the single source of truth for what yt-dlp is asked for and
// which output files are accepted for each requested format.
var formatTable = map[Format]formatSpec{
	FormatVTT:  {subFormat: "vtt/srt", candidates: []Format{FormatVTT, FormatSRT}},
	FormatSRT:  {subFormat: "srt/vtt", candidates: []Format{FormatSRT, FormatVTT}},
	FormatText: {subFormat: "vtt/srt", candidates: []Format{FormatVTT, FormatSRT, FormatText}},
}

// ParseFormat validates a user-supplied format name. Matching is case
// insensitive; "" is not accepted here so callers apply their own default.
func ParseFormat(value string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := formatTable[f]; !ok {
		return "", rejectRequest(fmt.Sprintf("unsupported format %q (expected vtt, srt, or txt)", value), nil)
	}
	return f, nil
}

// Raw reports whether the format is returned verbatim.
func (f Format) Raw() bool {
	return f == FormatVTT || f == FormatSRT
}

// SubFormat returns the yt-dlp format preference list for f.
func (f Format) SubFormat() string {
	return formatTable[f].subFormat
}

// Candidates returns the output extensions accepted for f, in lookup order.
func (f Format) Candidates() []Format {
	return append([]Format(nil), formatTable[f].candidates...)
}

func (f Format) String() string {
	return string(f)
}
