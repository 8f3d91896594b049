package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		username string
		valid    bool
	}{
		{"alice", true},
		{"a.b-c_d@e+f", true},
		{"ab", false},
		{"has space", false},
		{"emoji🙂", false},
	}

	for _, tc := range cases {
		valid, reason := ValidateUsername(tc.username)
		assert.Equal(t, tc.valid, valid, "username %q", tc.username)
		if !tc.valid {
			assert.NotEmpty(t, reason)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "ab", SanitizeString("a\x00b"))
	assert.Equal(t, "", SanitizeString(" \x00 "))
}

func TestValidateStruct(t *testing.T) {
	v := NewValidator()

	type payload struct {
		Name  string `validate:"required,max=5"`
		Email string `validate:"omitempty,email"`
	}

	assert.NoError(t, v.ValidateStruct(payload{Name: "ok"}))
	assert.Error(t, v.ValidateStruct(payload{}))
	assert.Error(t, v.ValidateStruct(payload{Name: "toolong"}))
	assert.Error(t, v.ValidateStruct(payload{Name: "ok", Email: "not-an-email"}))
}
