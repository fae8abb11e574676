package goldberg

import (
	"strconv"
	"strings"
)

type LineKind int

const (
	LineSkipped LineKind = iota
	LineMatched
)

// LineResult is the outcome of parsing one `<id> = <value>` line.
type LineResult struct {
	Kind  LineKind
	ID    int
	Value string
}

func (r LineResult) Matched() bool { return r.Kind == LineMatched }

// ParseDlcLine parses a DLC.txt line of the form `<appid> = <name>`.
func ParseDlcLine(line string) LineResult { return parseIDLine(line) }

// ParseAppPathLine parses an app_paths.txt line of the form `<appid>=<path>`.
func ParseAppPathLine(line string) LineResult { return parseIDLine(line) }

func parseIDLine(line string) LineResult {
	id, value, ok := strings.Cut(line, "=")
	if !ok {
		return LineResult{Kind: LineSkipped}
	}
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil || n < 0 {
		return LineResult{Kind: LineSkipped}
	}
	return LineResult{Kind: LineMatched, ID: n, Value: strings.TrimSpace(value)}
}
