package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseYear coerces user input to a year. Surrounding whitespace is ignored;
// anything else that is not a base-10 integer is rejected.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty year")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year %q is not a number", s)
	}
	return n, nil
}
