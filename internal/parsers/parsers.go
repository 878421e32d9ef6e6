// Package parsers turns the human-oriented text printed by remote shell tools
// into the metrics data model. Every function here is pure: parsing the same
// text twice gives equal results.
package parsers

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrProcessNotFound means the output shows the process is not running.
	ErrProcessNotFound = errors.New("process not found")

	// ErrMalformed means a required field was missing or unparsable.
	ErrMalformed = errors.New("malformed output")
)

// SectionSeparator splits the sections of a batched command's output.
const SectionSeparator = "---"

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[A-Za-z]|\x1b\][^\x07]*\x07`)

// Sanitize strips ANSI escape sequences and carriage returns. Old adb
// versions allocate a pty for shell commands and emit CRLF line endings.
func Sanitize(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\r", "")
}

// SplitSections splits batched output on separator lines. Leading and
// trailing blank lines of each section are trimmed.
func SplitSections(output string) []string {
	var sections []string
	var cur []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == SectionSeparator {
			sections = append(sections, strings.Trim(strings.Join(cur, "\n"), "\n"))
			cur = cur[:0]
			continue
		}
		cur = append(cur, line)
	}
	return append(sections, strings.Trim(strings.Join(cur, "\n"), "\n"))
}
