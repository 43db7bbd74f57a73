package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Dedupe(nil))
	})

	t.Run("single element untouched", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, Dedupe([]string{"a"}))
	})

	t.Run("removes duplicates preserving first-seen order", func(t *testing.T) {
		in := []string{"SABBATH_MORNING", "FRIDAY_VESPERS", "SABBATH_MORNING", "FRIDAY_VESPERS"}
		assert.Equal(t, []string{"SABBATH_MORNING", "FRIDAY_VESPERS"}, Dedupe(in))
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		in := []string{"a", "a", "b"}
		_ = Dedupe(in)
		assert.Equal(t, []string{"a", "a", "b"}, in)
	})
}
