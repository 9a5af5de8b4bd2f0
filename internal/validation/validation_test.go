package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail_Valid(t *testing.T) {
	tests := []struct {
		input      string
		normalized string
	}{
		{"user@example.com", "user@example.com"},
		{"A@B.com", "a@b.com"},
		{"First.Last@Sub.Example.ORG", "first.last@sub.example.org"},
	}

	for _, tt := range tests {
		res := Email(tt.input)
		assert.True(t, res.Valid, "input %q", tt.input)
		assert.Empty(t, res.Errors)
		assert.Equal(t, tt.normalized, res.Value)
	}
}

func TestEmail_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no at sign", "userexample.com"},
		{"no domain dot", "user@example"},
		{"contains spaces", "user name@example.com"},
		{"too long", strings.Repeat("a", 250) + "@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Email(tt.input)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestEmail_Required(t *testing.T) {
	res := Email("")
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Email is required"}, res.Errors)
}

func TestPassword_Valid(t *testing.T) {
	res := Password("abc12345!", "user@example.com")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
}

func TestPassword_Violations(t *testing.T) {
	tests := []struct {
		name     string
		password string
		email    string
		message  string
	}{
		{"too short", "a1!", "", "Password must be at least 8 characters long"},
		{"no digit", "abcdefgh!", "", "Password must contain at least one number"},
		{"no symbol", "abcdefg1", "", "Password must contain at least one symbol"},
		{"contains email", "xa@b.com123!", "A@B.com", "Password cannot contain your email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Password(tt.password, tt.email)
			assert.False(t, res.Valid)
			assert.Contains(t, res.Errors, tt.message)
		})
	}
}

func TestPassword_AccumulatesAllViolations(t *testing.T) {
	// Short, no digit, no symbol: every applicable message must be present.
	res := Password("abc", "")
	assert.False(t, res.Valid)
	assert.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors, "Password must be at least 8 characters long")
	assert.Contains(t, res.Errors, "Password must contain at least one number")
	assert.Contains(t, res.Errors, "Password must contain at least one symbol")
}

func TestPassword_Required(t *testing.T) {
	res := Password("", "user@example.com")
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Password is required"}, res.Errors)
}

func TestFullName_Valid(t *testing.T) {
	res := FullName("  Jane Doe  ")
	assert.True(t, res.Valid)
	assert.Equal(t, "Jane Doe", res.Value)
}

func TestFullName_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"digits", "Jane Doe 2"},
		{"punctuation", "Jane O'Doe"},
		{"too long", strings.Repeat("a", 101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FullName(tt.input)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestFullName_WhitespaceOnlyAccumulates(t *testing.T) {
	res := FullName("   ")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "Full name cannot be empty")
	assert.Contains(t, res.Errors, "Full name can only contain letters and spaces")
}
