package service

import (
	"strings"
	"unicode/utf8"
)

var placeholders = map[string]bool{"string": true, "text": true, "value": true}

// checkLabel rejects empty, too short and placeholder values ("string",
// "text", "value" in any case) for names and types.
func checkLabel(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return "", validationf("%s cannot be empty", field)
	case placeholders[strings.ToLower(v)]:
		return "", validationf("%s must be a meaningful value, not a placeholder like '%s'", field, v)
	case utf8.RuneCountInString(v) < 2:
		return "", validationf("%s must be at least 2 characters long", field)
	case max > 0 && utf8.RuneCountInString(v) > max:
		return "", validationf("%s must be at most %d characters long", field, max)
	}
	return v, nil
}

func checkStatus(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return validationf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}

// pageBounds validates skip/limit with the list defaults.
func pageBounds(skip, limit, max int) error {
	if skip < 0 {
		return validationf("skip must be >= 0")
	}
	if limit < 1 || limit > max {
		return validationf("limit must be between 1 and %d", max)
	}
	return nil
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
