package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebateTurnsSchedule(t *testing.T) {
	assert.Empty(t, debateTurns(0))
	assert.Empty(t, debateTurns(-1))

	turns := debateTurns(2)
	assert.Len(t, turns, 6)
	want := []turn{
		{RoleAdvocate, 1}, {RoleSkeptic, 1}, {RoleMediator, 1},
		{RoleAdvocate, 2}, {RoleSkeptic, 2}, {RoleMediator, 2},
	}
	assert.Equal(t, want, turns)
}

func TestClampRounds(t *testing.T) {
	intp := func(v int) *int { return &v }

	tests := []struct {
		name      string
		requested *int
		def, max  int
		want      int
	}{
		{"nil uses default", nil, 2, 5, 2},
		{"explicit zero skips debate", intp(0), 2, 5, 0},
		{"negative clamps to zero", intp(-3), 2, 5, 0},
		{"within cap", intp(3), 2, 5, 3},
		{"above cap", intp(9), 2, 5, 5},
		{"no cap configured", intp(9), 2, 0, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampRounds(tt.requested, tt.def, tt.max))
		})
	}
}
