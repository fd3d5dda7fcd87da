package util

import (
	"regexp"
)

// Item keys are opaque to the server but end up in URLs, Redis keys and log
// lines, so only a conservative character set is accepted.
var itemKeyRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,254}$`)

func IsValidItemKey(s string) bool {
	return itemKeyRegex.MatchString(s)
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
