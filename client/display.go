package client

import (
	"fmt"
	"io"
	"strings"
)

// BannerKind 两类横幅：奖励（一次性，不终止）与终局（胜利/失败）
type BannerKind string

const (
	BannerSuccess BannerKind = "success"
	BannerFinal   BannerKind = "final"
)

const (
	NoKeyMessage  = "No key available"
	GameOverText  = "Game Over!"
	BoardFullText = "Congratulations! You filled the whole board!"
	successPrefix = "Success! Your key: "
	scoreFormat   = "Score: %d"
)

// ScoreText 分数显示文本
func ScoreText(score int) string {
	return fmt.Sprintf(scoreFormat, score)
}

// SuccessText 奖励横幅文本，key 缺失时回退到 NoKeyMessage
func SuccessText(key string) string {
	if key == "" {
		key = NoKeyMessage
	}
	return successPrefix + key
}

// Display 渲染目标；所有方法都在循环协程内被调用，board 只读且调用返回后可能被重建
type Display interface {
	Render(board *Board, score int)
	Banner(kind BannerKind, text string)
	ClearBanners()
	Error(err error)
}

// MultiDisplay 扇出到多个渲染目标
type MultiDisplay []Display

func (m MultiDisplay) Render(board *Board, score int) {
	for _, d := range m {
		d.Render(board, score)
	}
}

func (m MultiDisplay) Banner(kind BannerKind, text string) {
	for _, d := range m {
		d.Banner(kind, text)
	}
}

func (m MultiDisplay) ClearBanners() {
	for _, d := range m {
		d.ClearBanners()
	}
}

func (m MultiDisplay) Error(err error) {
	for _, d := range m {
		d.Error(err)
	}
}

// TerminalDisplay 以文本形式重绘整个画面
type TerminalDisplay struct {
	out     io.Writer
	frame   string
	banners map[BannerKind]string
	lastErr string
}

func NewTerminalDisplay(out io.Writer) *TerminalDisplay {
	return &TerminalDisplay{out: out, banners: make(map[BannerKind]string)}
}

func (t *TerminalDisplay) Render(board *Board, score int) {
	t.frame = board.String() + ScoreText(score) + "\n"
	t.lastErr = ""
	t.flush()
}

func (t *TerminalDisplay) Banner(kind BannerKind, text string) {
	t.banners[kind] = text
	t.flush()
}

func (t *TerminalDisplay) ClearBanners() {
	clear(t.banners)
	t.flush()
}

func (t *TerminalDisplay) Error(err error) {
	t.lastErr = err.Error()
	t.flush()
}

func (t *TerminalDisplay) flush() {
	var sb strings.Builder
	// 清屏并回到左上角；原始模式下换行需要 \r
	sb.WriteString("\033[H\033[2J")
	sb.WriteString(t.frame)
	for _, kind := range []BannerKind{BannerSuccess, BannerFinal} {
		if text, ok := t.banners[kind]; ok {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	}
	if t.lastErr != "" {
		sb.WriteString("error: " + t.lastErr + "\n")
	}
	sb.WriteString("arrows/WASD steer, n start, q quit\n")
	_, _ = io.WriteString(t.out, strings.ReplaceAll(sb.String(), "\n", "\r\n"))
}
