package client

import (
	"context"
	"errors"
	"io"
)

// ErrQuit 用户在终端按下 q 或 Ctrl-C
var ErrQuit = errors.New("quit requested")

// Key 终端按键解析结果
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyStart
	KeyQuit
)

func (k Key) direction() Direction {
	switch k {
	case KeyUp:
		return DirUp
	case KeyDown:
		return DirDown
	case KeyLeft:
		return DirLeft
	case KeyRight:
		return DirRight
	default:
		return DirNone
	}
}

// ParseKeys 解析一段完整的原始输入：方向键转义序列、WASD、n/回车、q/Ctrl-C
// 末尾不完整的转义序列被丢弃
func ParseKeys(buf []byte) []Key {
	var p keyParser
	return p.feed(buf)
}

const maxPendingEscape = 16

// keyParser 跨多次 Read 解析按键，被拆开的转义序列留到下次拼接
type keyParser struct {
	pending []byte
}

func (p *keyParser) feed(buf []byte) []Key {
	data := buf
	if len(p.pending) > 0 {
		data = append(p.pending, buf...)
		p.pending = nil
	}
	var keys []Key
	for i := 0; i < len(data); i++ {
		if data[i] != 0x1b {
			keys = appendPlainKey(keys, data[i])
			continue
		}
		if i+1 == len(data) {
			p.hold(data[i:])
			break
		}
		// 单独的 ESC，后面的字节照常处理
		if data[i+1] != '[' && data[i+1] != 'O' {
			continue
		}
		// CSI/SS3：参数与中间字节 0x20-0x3F，结束字节 0x40-0x7E
		end := i + 2
		for end < len(data) && data[end] >= 0x20 && data[end] <= 0x3f {
			end++
		}
		if end == len(data) {
			p.hold(data[i:])
			break
		}
		if data[end] < 0x40 || data[end] > 0x7e {
			i = end - 1
			continue
		}
		keys = appendArrowKey(keys, data[end])
		i = end
	}
	return keys
}

func (p *keyParser) hold(b []byte) {
	if len(b) > maxPendingEscape {
		return
	}
	p.pending = append([]byte(nil), b...)
}

// 修饰键组合（如 ESC[1;2D）按结束字节取方向
func appendArrowKey(keys []Key, final byte) []Key {
	switch final {
	case 'A':
		return append(keys, KeyUp)
	case 'B':
		return append(keys, KeyDown)
	case 'C':
		return append(keys, KeyRight)
	case 'D':
		return append(keys, KeyLeft)
	}
	return keys
}

func appendPlainKey(keys []Key, b byte) []Key {
	switch b {
	case 'w', 'W':
		return append(keys, KeyUp)
	case 's', 'S':
		return append(keys, KeyDown)
	case 'a', 'A':
		return append(keys, KeyLeft)
	case 'd', 'D':
		return append(keys, KeyRight)
	case 'n', 'N', '\r', '\n':
		return append(keys, KeyStart)
	case 'q', 'Q', 0x03:
		return append(keys, KeyQuit)
	}
	return keys
}

// ReadKeys 持续读取终端输入并转交给 Controls，直到 ctx 结束、读到 EOF 或用户退出
func ReadKeys(ctx context.Context, r io.Reader, c Controls) error {
	buf := make([]byte, 64)
	var parser keyParser
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		for _, k := range parser.feed(buf[:n]) {
			switch k {
			case KeyQuit:
				return ErrQuit
			case KeyStart:
				c.Start()
			default:
				c.Steer(k.direction())
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
