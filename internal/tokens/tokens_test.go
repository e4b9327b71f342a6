package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_ShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "KRAS G12C", Truncate("KRAS G12C", 100))
}

func TestTruncate_EmptyAndZeroBudget(t *testing.T) {
	assert.Equal(t, "", Truncate("", 10))
	long := strings.Repeat("evidence ", 1000)
	assert.Equal(t, long, Truncate(long, 0))
	assert.Equal(t, long, Truncate(long, -1))
}

func TestTruncate_LongTextShortened(t *testing.T) {
	long := strings.Repeat("clinical trial abstract text ", 500)
	got := Truncate(long, 50)
	assert.Less(t, len(got), len(long))
	assert.True(t, strings.HasPrefix(long, got))
}

func TestCount_Monotonic(t *testing.T) {
	short := Count("one sentence")
	long := Count(strings.Repeat("one sentence ", 200))
	assert.Greater(t, long, short)
	assert.Equal(t, 0, Count(""))
}
