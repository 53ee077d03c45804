package pocket

import (
	"regexp"
	"strconv"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// CleanLabel prepares a user-supplied label:
// 1. Trim leading/trailing whitespace
// 2. Collapse internal whitespace to single spaces
// Case is preserved since labels are shown as typed.
func CleanLabel(s string) string {
	s = strings.TrimSpace(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// CompartmentLabel returns the synthesized label for the editor group at the given 1-based position.
func CompartmentLabel(group int) string {
	return "Group " + strconv.Itoa(group)
}
