package client

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessText(t *testing.T) {
	assert.Equal(t, "Success! Your key: 123", SuccessText("123"))
	assert.Equal(t, "Success! Your key: No key available", SuccessText(""))
}

func TestTerminalDisplay(t *testing.T) {
	var out bytes.Buffer
	d := NewTerminalDisplay(&out)
	b := NewBoard(2)
	b.Render([]Coord{{0, 0}}, Coord{1, 1})

	d.Render(b, 4)
	d.Banner(BannerSuccess, SuccessText(""))
	d.Banner(BannerFinal, GameOverText)
	d.Error(errors.New("connection refused"))

	frames := strings.Split(out.String(), "\033[H\033[2J")
	last := frames[len(frames)-1]
	assert.Equal(t, "# .\r\n. @\r\nScore: 4\r\n"+
		"Success! Your key: No key available\r\n"+
		"Game Over!\r\n"+
		"error: connection refused\r\n"+
		"arrows/WASD steer, n start, q quit\r\n", last)

	out.Reset()
	d.ClearBanners()
	assert.NotContains(t, out.String(), "Game Over!")
	assert.Contains(t, out.String(), "Score: 4")
}

func TestMultiDisplay(t *testing.T) {
	a, b := &recordingDisplay{}, &recordingDisplay{}
	m := MultiDisplay{a, b}

	m.Render(NewBoard(2), 1)
	m.Banner(BannerFinal, GameOverText)
	m.ClearBanners()
	m.Error(errors.New("x"))

	for _, d := range []*recordingDisplay{a, b} {
		renders, banners, clears, errs := d.snapshot()
		assert.Len(t, renders, 1)
		assert.Len(t, banners, 1)
		assert.Equal(t, 1, clears)
		assert.Len(t, errs, 1)
	}
}
