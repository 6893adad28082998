package model

import "time"

// RawLine is one line read from a log source.
type RawLine struct {
	Text   string `json:"text"`
	Source string `json:"source"` // originating file path
	Number int    `json:"number"` // 1-based line number within Source
}

// Report is the outcome of one filter run.
type Report struct {
	ID        string              `json:"id"`
	Filters   []string            `json:"filters"`
	Groups    map[string][]string `json:"groups,omitempty"` // category -> accepted tokens
	Sources   []string            `json:"sources,omitempty"`
	Scanned   int                 `json:"scanned"`
	Lines     []string            `json:"lines"`
	Elapsed   time.Duration       `json:"elapsed_ns"`
	Timestamp time.Time           `json:"timestamp"`
}

// Count returns the number of matched lines.
func (r Report) Count() int {
	return len(r.Lines)
}

// Texts returns the text of each line, in order.
func Texts(lines []RawLine) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// Snapshot is the full content of the log sources at one point in time.
type Snapshot struct {
	Sources  []string  `json:"sources"`
	Lines    []RawLine `json:"-"`
	LoadedAt time.Time `json:"loaded_at"`
}
