package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"subgrab/internal/deps"
	"subgrab/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// checkRows turns preflight results into table rows.
func checkRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := "OK"
		if !r.Passed {
			state = "FAIL"
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	return rows
}

// dependencyRows turns dependency statuses into table rows. Missing optional
// dependencies are reported as warnings rather than failures.
func dependencyRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "ready"
		switch {
		case !s.Available && s.Optional:
			state = "optional, missing"
		case !s.Available:
			state = "missing"
		}
		command := s.Command
		if s.Path != "" {
			command = s.Path
		}
		version := s.Version
		if version == "" {
			version = "-"
		}
		rows = append(rows, []string{s.Name, state, version, command})
	}
	return rows
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
