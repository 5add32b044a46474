package client

import "strings"

// InputMessage 入站输入的 JSON 结构（WebSocket 文本消息）
// 示例：{"type":"move","command":"ArrowUp"}、{"type":"start"}
type InputMessage struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
}

const (
	InputTypeMove  = "move"
	InputTypeStart = "start"
)

// Controls 输入端可以驱动的操作；键盘、按钮走同一入口，不区分来源
type Controls interface {
	Start()
	Steer(Direction)
}

// ParseCommand 将按键名或方向词转换为方向，无法识别时返回 DirNone
// 支持浏览器 KeyboardEvent.key（ArrowUp）、方向字面量（UP/up）以及 WASD
func ParseCommand(cmd string) Direction {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "arrowup", "up", "w":
		return DirUp
	case "arrowdown", "down", "s":
		return DirDown
	case "arrowleft", "left", "a":
		return DirLeft
	case "arrowright", "right", "d":
		return DirRight
	default:
		return DirNone
	}
}

// Dispatch 解释一条输入消息并转交给 Controls；返回是否被识别
func Dispatch(c Controls, im InputMessage) bool {
	switch strings.ToLower(im.Type) {
	case InputTypeStart:
		c.Start()
		return true
	case InputTypeMove:
		dir := ParseCommand(im.Command)
		if dir == DirNone {
			return false
		}
		c.Steer(dir)
		return true
	default:
		return false
	}
}
