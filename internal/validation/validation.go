// Package validation holds the field-level policy validators for signup
// input. These are pure functions: expected-invalid input produces a Result
// with accumulated messages, never an error. Structural request checks
// (required fields, JSON shape) live at the handler edge; policy rules with
// user-facing messages live here.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxEmailLength    = 255
	MinPasswordLength = 8
	MaxFullNameLength = 100
)

var (
	emailRegex          = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordNumberRegex = regexp.MustCompile(`\d`)
	passwordSymbolRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	fullNameRegex       = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

// Result is the outcome of validating a single field. Violations accumulate
// rather than short-circuiting, so callers can report every problem at once.
// Value carries the normalized input and is only meaningful when Valid.
type Result struct {
	Valid  bool
	Errors []string
	Value  string
}

// Email checks shape and length, returning the trimmed, lowercased address.
func Email(email string) Result {
	var errs []string

	if email == "" {
		return Result{Valid: false, Errors: []string{"Email is required"}}
	}

	if len(email) > MaxEmailLength {
		errs = append(errs, fmt.Sprintf("Email must not exceed %d characters", MaxEmailLength))
	}

	if !emailRegex.MatchString(email) {
		errs = append(errs, "Email format is invalid")
	}

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
		Value:  strings.ToLower(strings.TrimSpace(email)),
	}
}

// Password enforces the password policy. The candidate email, when given, is
// rejected as a case-insensitive substring of the password.
func Password(password, email string) Result {
	var errs []string

	if password == "" {
		return Result{Valid: false, Errors: []string{"Password is required"}}
	}

	if len(password) < MinPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long", MinPasswordLength))
	}

	if !passwordNumberRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}

	if !passwordSymbolRegex.MatchString(password) {
		errs = append(errs, "Password must contain at least one symbol")
	}

	if email != "" && strings.Contains(strings.ToLower(password), strings.ToLower(email)) {
		errs = append(errs, "Password cannot contain your email address")
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// FullName requires a non-empty trimmed name of letters and whitespace,
// returning the trimmed value.
func FullName(fullName string) Result {
	var errs []string

	if fullName == "" {
		return Result{Valid: false, Errors: []string{"Full name is required"}}
	}

	trimmed := strings.TrimSpace(fullName)

	if trimmed == "" {
		errs = append(errs, "Full name cannot be empty")
	}

	if len(trimmed) > MaxFullNameLength {
		errs = append(errs, fmt.Sprintf("Full name must not exceed %d characters", MaxFullNameLength))
	}

	if !fullNameRegex.MatchString(trimmed) {
		errs = append(errs, "Full name can only contain letters and spaces")
	}

	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
		Value:  trimmed,
	}
}
