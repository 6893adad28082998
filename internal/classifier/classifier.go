package classifier

import (
	"regexp"
)

// Category identifies which field of a log line a filter token constrains.
type Category int

const (
	Unrecognized Category = iota
	IP
	Date
	StatusCode
	HTTPMethod
)

// String returns the lower-case name used in reports and logs.
func (c Category) String() string {
	switch c {
	case IP:
		return "ip"
	case Date:
		return "date"
	case StatusCode:
		return "status"
	case HTTPMethod:
		return "method"
	default:
		return "unrecognized"
	}
}

// Rule pairs the pattern that recognizes a filter token with the pattern that
// pulls the same field out of a log line. For most categories the two are the
// same expression; status codes are recognized loosely and extracted strictly.
type Rule struct {
	Category Category
	classify *regexp.Regexp
	extract  *regexp.Regexp
}

// Recognizes reports whether token belongs to the rule's category.
func (r Rule) Recognizes(token string) bool {
	return r.classify.MatchString(token)
}

// Extract returns the first field the rule finds in line.
// When the extraction pattern has a capture group, the group is the field.
func (r Rule) Extract(line string) (string, bool) {
	loc := r.extract.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", false
	}
	if len(loc) >= 4 && loc[2] >= 0 {
		return line[loc[2]:loc[3]], true
	}
	return line[loc[0]:loc[1]], true
}

// Pattern returns the extraction expression, for diagnostics.
func (r Rule) Pattern() string {
	if r.extract == nil {
		return ""
	}
	return r.extract.String()
}

// ---------------------------------------------------------------------------
// Rule table
// ---------------------------------------------------------------------------

var (
	ipPattern     = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	datePattern   = regexp.MustCompile(`\d{2}/\w{3}/\d{4}`)
	digitsPattern = regexp.MustCompile(`\d{3}`)
	methodPattern = regexp.MustCompile(`GET|POST|PUT|DELETE`)

	// RE2 has no lookaround, so the surrounding whitespace is consumed and the
	// code itself is captured. Start and end of line are not boundaries.
	statusPattern = regexp.MustCompile(`\s([1-5][0-9]{2})\s`)
)

// rules is evaluated top to bottom; the first rule recognizing a token wins.
// IP must precede Date and StatusCode, and Date must precede StatusCode,
// because their tokens also contain runs of three digits.
var rules = []Rule{
	{Category: IP, classify: ipPattern, extract: ipPattern},
	{Category: Date, classify: datePattern, extract: datePattern},
	{Category: StatusCode, classify: digitsPattern, extract: statusPattern},
	{Category: HTTPMethod, classify: methodPattern, extract: methodPattern},
}

// Rules returns the rule table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the rule of the first category recognizing token.
// The boolean is false, and the rule's Category Unrecognized, when no rule applies.
func Classify(token string) (Rule, bool) {
	for _, r := range rules {
		if r.Recognizes(token) {
			return r, true
		}
	}
	return Rule{Category: Unrecognized}, false
}

// ForCategory looks up the rule owned by c.
func ForCategory(c Category) (Rule, bool) {
	for _, r := range rules {
		if r.Category == c {
			return r, true
		}
	}
	return Rule{Category: Unrecognized}, false
}
