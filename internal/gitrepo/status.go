package gitrepo

import "strings"

const (
	statusCodeLengthConstant     = 2
	statusSeparatorIndexConstant = 2
	statusMinimumLineLength      = 4
	statusSeparatorCharacter     = ' '
	outputLineSeparatorConstant  = "\n"
	outputCarriageReturnConstant = "\r"
)

// ParseStatusEntries parses porcelain status output. Each line must hold a
// two-character code, a single space, and a path; other lines are skipped.
func ParseStatusEntries(output string) []StatusEntry {
	var entries []StatusEntry
	for _, rawLine := range strings.Split(output, outputLineSeparatorConstant) {
		line := strings.TrimSuffix(rawLine, outputCarriageReturnConstant)
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		entry, parsed := parseStatusLine(line)
		if !parsed {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseStatusLine(line string) (StatusEntry, bool) {
	if len(line) < statusMinimumLineLength {
		return StatusEntry{}, false
	}
	if line[statusSeparatorIndexConstant] != statusSeparatorCharacter {
		return StatusEntry{}, false
	}
	return StatusEntry{
		Code: line[:statusCodeLengthConstant],
		Path: line[statusSeparatorIndexConstant+1:],
	}, true
}

// CountNonEmptyLines counts lines holding anything besides whitespace.
func CountNonEmptyLines(output string) int {
	count := 0
	for _, line := range strings.Split(output, outputLineSeparatorConstant) {
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		count++
	}
	return count
}
