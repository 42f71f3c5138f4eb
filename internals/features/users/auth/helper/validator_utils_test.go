package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	cases := map[string]bool{
		"short1":       false,
		"lettersonly!": false,
		"12345678":     false,
		"reading2024":  true,
	}
	for pw, ok := range cases {
		err := ValidatePassword(pw)
		if ok {
			assert.NoError(t, err, pw)
		} else {
			assert.Error(t, err, pw)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "desk@library.in", NormalizeEmail("  Desk@Library.IN "))
}
