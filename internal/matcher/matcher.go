package matcher

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidFilterToken is wrapped by InvalidTokenError.
	ErrInvalidFilterToken = errors.New("invalid filter token")

	// ErrNoFilters is returned for an empty token list under RejectEmpty.
	ErrNoFilters = errors.New("no filter tokens supplied")
)

// InvalidTokenError names the first token that no category recognizes.
type InvalidTokenError struct {
	Token string
	Index int
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("filter token %q at position %d matches no category", e.Token, e.Index)
}

func (e *InvalidTokenError) Unwrap() error { return ErrInvalidFilterToken }

// EmptyPolicy decides what an empty token list means.
type EmptyPolicy int

const (
	// AllowEmpty applies no constraint and returns every line.
	AllowEmpty EmptyPolicy = iota
	// RejectEmpty fails with ErrNoFilters.
	RejectEmpty
)

// ParseEmptyPolicy accepts "allow" (or "") and "reject".
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "allow":
		return AllowEmpty, nil
	case "reject":
		return RejectEmpty, nil
	default:
		return AllowEmpty, fmt.Errorf("unknown empty filter policy %q (want allow or reject)", s)
	}
}

func (p EmptyPolicy) String() string {
	if p == RejectEmpty {
		return "reject"
	}
	return "allow"
}

// Options tunes a Matcher.
type Options struct {
	EmptyPolicy EmptyPolicy

	// ParallelThreshold is the line count at or above which category passes
	// run concurrently. Zero or negative keeps every run sequential.
	ParallelThreshold int
}

// Matcher filters log lines by filter tokens.
// Lines survive when, for every category present, the field extracted from the
// line equals one of that category's tokens.
type Matcher struct {
	opts Options
}

// New returns a Matcher with the given options.
func New(opts Options) *Matcher {
	return &Matcher{opts: opts}
}

// Filter is shorthand for New(Options{}).Filter.
func Filter(lines, tokens []string) ([]string, error) {
	return New(Options{}).Filter(lines, tokens)
}

// Filter returns the ordered subsequence of lines accepted by tokens.
// An unrecognized token fails the whole request with an *InvalidTokenError
// and no lines. An empty result with a nil error means nothing matched.
func (m *Matcher) Filter(lines, tokens []string) ([]string, error) {
	grouping, err := NewGrouping(tokens)
	if err != nil {
		return nil, err
	}
	return m.Apply(lines, grouping)
}

// Apply filters lines with an already built grouping.
func (m *Matcher) Apply(lines []string, grouping *Grouping) ([]string, error) {
	if grouping.Len() == 0 {
		if m.opts.EmptyPolicy == RejectEmpty {
			return nil, ErrNoFilters
		}
		return append([]string(nil), lines...), nil
	}

	if m.opts.ParallelThreshold > 0 && len(lines) >= m.opts.ParallelThreshold && grouping.Len() > 1 {
		return filterParallel(lines, grouping)
	}
	return filterSequential(lines, grouping), nil
}

// filterSequential runs one pass per category, each over the previous survivors.
func filterSequential(lines []string, grouping *Grouping) []string {
	survivors := lines
	for _, g := range grouping.groups {
		next := make([]string, 0, len(survivors))
		for _, line := range survivors {
			if g.Accepts(line) {
				next = append(next, line)
			}
		}
		survivors = next
		if len(survivors) == 0 {
			break
		}
	}
	if survivors == nil {
		return []string{}
	}
	return survivors
}

// filterParallel evaluates each category over all lines concurrently, then
// keeps the lines every category accepted, in input order.
func filterParallel(lines []string, grouping *Grouping) ([]string, error) {
	masks := make([][]bool, len(grouping.groups))

	var eg errgroup.Group
	for i, g := range grouping.groups {
		i, g := i, g
		eg.Go(func() error {
			mask := make([]bool, len(lines))
			for j, line := range lines {
				mask[j] = g.Accepts(line)
			}
			masks[i] = mask
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0)
	for j, line := range lines {
		keep := true
		for _, mask := range masks {
			if !mask[j] {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, line)
		}
	}
	return out, nil
}

// SplitTokens splits a comma-separated filter specification.
// Tokens are kept verbatim; surrounding whitespace is not trimmed.
func SplitTokens(spec string) []string {
	return strings.Split(spec, ",")
}
