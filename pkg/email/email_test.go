package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "jane@example.com", Normalize("  Jane@Example.COM "))
	assert.Equal(t, "", Normalize("   "))
}

func TestIsValid(t *testing.T) {
	valid := []string{"jane@example.com", "j.n+tag@sub.example.co.ke"}
	for _, addr := range valid {
		assert.True(t, IsValid(addr), addr)
	}

	invalid := []string{"", "not-an-email", "@example.com", "jane@"}
	for _, addr := range invalid {
		assert.False(t, IsValid(addr), addr)
	}
}
