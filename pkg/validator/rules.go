package validator

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
)

// Required validates that a string is not empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool { return strings.TrimSpace(value) != "" },
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// RequiredOneOf validates that at least one of the values is set.
// The error is reported on the first field.
func RequiredOneOf(fields []string, values ...string) Rule {
	return Rule{
		Check: func() bool {
			return slices.ContainsFunc(values, func(v string) bool { return strings.TrimSpace(v) != "" })
		},
		Error: ValidationError{
			Field:   fields[0],
			Message: "one of " + strings.Join(fields, ", ") + " is required",
		},
	}
}

func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool { return len(value) <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", max)},
	}
}

// ValidEmail validates an address with a dotted domain. Empty values pass;
// combine with Required when the field is mandatory.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return true
			}
			addr, err := mail.ParseAddress(value)
			if err != nil || addr.Address != strings.TrimSpace(value) {
				return false
			}
			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}
			if !strings.Contains(domain, ".") {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}
			return true
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

// InList validates that value is one of allowed. The zero value passes when
// allowEmpty is set.
func InList[T comparable](field string, value T, allowed []T, allowEmpty bool) Rule {
	return Rule{
		Check: func() bool {
			var zero T
			if allowEmpty && value == zero {
				return true
			}
			return slices.Contains(allowed, value)
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be one of: %v", allowed)},
	}
}

// Min validates that a numeric value is greater than or equal to min.
func Min[T Numeric](field string, value T, min T) Rule {
	return Rule{
		Check: func() bool { return value >= min },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %v", min)},
	}
}

// Max validates that a numeric value is less than or equal to max.
func Max[T Numeric](field string, value T, max T) Rule {
	return Rule{
		Check: func() bool { return value <= max },
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %v", max)},
	}
}
