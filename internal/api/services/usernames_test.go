package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUsernameShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{1,3}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, pattern, GenerateUsername())
	}
}
