package client

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_Set(t *testing.T) {
	tests := []struct {
		name      string
		current   Direction
		requested Direction
		want      Direction
		accepted  bool
	}{
		{name: "same direction", current: DirUp, requested: DirUp, want: DirUp, accepted: true},
		{name: "orthogonal left", current: DirUp, requested: DirLeft, want: DirLeft, accepted: true},
		{name: "orthogonal right", current: DirDown, requested: DirRight, want: DirRight, accepted: true},
		{name: "up to down", current: DirUp, requested: DirDown, want: DirUp, accepted: false},
		{name: "down to up", current: DirDown, requested: DirUp, want: DirDown, accepted: false},
		{name: "left to right", current: DirLeft, requested: DirRight, want: DirLeft, accepted: false},
		{name: "right to left", current: DirRight, requested: DirLeft, want: DirRight, accepted: false},
		{name: "none is ignored", current: DirLeft, requested: DirNone, want: DirLeft, accepted: false},
		{name: "out of range is ignored", current: DirLeft, requested: Direction(42), want: DirLeft, accepted: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(tt.current)
			assert.Equal(t, tt.accepted, c.Set(tt.requested))
			assert.Equal(t, tt.want, c.Current())
		})
	}
}

func TestController_NeverReversesInOneStep(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dirs := []Direction{DirUp, DirDown, DirLeft, DirRight}
	c := NewController(DirUp)
	for i := 0; i < 10000; i++ {
		prev := c.Current()
		c.Set(dirs[rng.Intn(len(dirs))])
		if c.Current() == prev.Opposite() {
			t.Fatalf("step %d: direction flipped from %s to %s", i, prev, c.Current())
		}
	}
}

func TestController_QueuedArrowDownWhileUp(t *testing.T) {
	c := NewController(DirUp)
	c.Set(ParseCommand("ArrowDown"))
	assert.Equal(t, DirUp, c.Current())
}
