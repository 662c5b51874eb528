package common

import (
	"errors"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername rejects names that would break the text sub-protocol:
// composite headers use ':', '|' and '->' as separators, so usernames are
// restricted to letters, digits and underscores. The raw string is validated,
// not a trimmed copy: callers store and route exactly what they were given,
// so " alice" must not pass as "alice".
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username must not be blank")
	}
	if len(username) > 50 {
		return errors.New("username must be at most 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username can only contain letters, numbers, and underscores")
	}
	return nil
}

func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("group name must not be blank")
	}
	if len(name) > 100 {
		return errors.New("group name must be at most 100 characters")
	}
	if strings.ContainsAny(name, ":|") {
		return errors.New("group name cannot contain ':' or '|'")
	}
	return nil
}
