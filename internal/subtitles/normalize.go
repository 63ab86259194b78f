package subtitles

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^<>]*>`)
	timingPattern  = regexp.MustCompile(`^(?:\d+:)?\d{2}:\d{2}[.,]\d{3}\s*-->\s*(?:\d+:)?\d{2}:\d{2}[.,]\d{3}`)
	headerPattern  = regexp.MustCompile(`^WEBVTT(?:\s|$)`)
	numericPattern = regexp.MustCompile(`^\d+$`)
)

// vttMetadataBlocks start blocks that never carry spoken text.
var vttMetadataBlocks = []string{"WEBVTT", "NOTE", "STYLE", "REGION"}

// Normalize converts tool output into the requested representation. Raw
// formats pass through untouched. Plain text keeps only caption text, one
// line per distinct caption line in first-seen order. It never fails; input
// that matches no known structure is treated as plain lines.
func Normalize(raw string, detected, requested Format) string {
	if requested.Raw() {
		return raw
	}
	// Byte order marks are dropped wherever they appear.
	raw = strings.ReplaceAll(raw, "\uFEFF", "")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	if detected.Raw() {
		lines = captionLines(raw, detected)
	} else {
		lines = strings.Split(raw, "\n")
	}

	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = cleanLine(line)
		if dropLine(line) {
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// captionLines splits VTT or SRT content into cue blocks and returns the
// lines following each cue's timing line. Blocks without a timing line are
// kept as-is unless they are VTT metadata.
func captionLines(raw string, detected Format) []string {
	var lines []string
	for _, block := range splitBlocks(raw) {
		timing := -1
		for i, line := range block {
			if timingPattern.MatchString(strings.TrimSpace(line)) {
				timing = i
				break
			}
		}
		if timing >= 0 {
			lines = append(lines, block[timing+1:]...)
			continue
		}
		if detected == FormatVTT && isMetadataBlock(block[0]) {
			continue
		}
		lines = append(lines, block...)
	}
	return lines
}

func splitBlocks(raw string) [][]string {
	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

func isMetadataBlock(first string) bool {
	first = strings.TrimSpace(first)
	for _, keyword := range vttMetadataBlocks {
		if first == keyword || strings.HasPrefix(first, keyword+" ") || strings.HasPrefix(first, keyword+"\t") {
			return true
		}
	}
	return false
}

// cleanLine removes markup until none is left and collapses whitespace.
// Repeating the removal handles tags split around an inner tag such as
// "<c<i>>".
func cleanLine(line string) string {
	for {
		stripped := tagPattern.ReplaceAllString(line, "")
		if stripped == line {
			break
		}
		line = stripped
	}
	return strings.Join(strings.Fields(line), " ")
}

func dropLine(line string) bool {
	return line == "" ||
		headerPattern.MatchString(line) ||
		timingPattern.MatchString(line) ||
		numericPattern.MatchString(line)
}
