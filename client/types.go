package client

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
)

// Direction 移动方向（客户端只表达意图，服务端权威解释）
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

var (
	_ encoding.TextMarshaler   = DirNone
	_ encoding.TextUnmarshaler = (*Direction)(nil)
)

var errInvalidDirection = errors.New("invalid direction")

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "UP"
	case DirDown:
		return "DOWN"
	case DirLeft:
		return "LEFT"
	case DirRight:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// Valid 仅四个方向可以发给服务端
func (d Direction) Valid() bool {
	return d >= DirUp && d <= DirRight
}

// Opposite 返回正反方向；DirNone 没有反方向
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	default:
		return DirNone
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, errInvalidDirection
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "UP":
		*d = DirUp
	case "DOWN":
		*d = DirDown
	case "LEFT":
		*d = DirLeft
	case "RIGHT":
		*d = DirRight
	default:
		return fmt.Errorf("%w: %q", errInvalidDirection, string(b))
	}
	return nil
}

// Coord 棋盘坐标；线上格式为 [x, y]，x 为行，y 为列
type Coord struct {
	Row int
	Col int
}

func (c Coord) In(size int) bool {
	return c.Row >= 0 && c.Row < size && c.Col >= 0 && c.Col < size
}

func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.Row, c.Col})
}

// UnmarshalJSON 接受 [x, y]，也容忍单元素嵌套的 [[x, y]]
func (c *Coord) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err != nil {
		var nested [][]int
		if nerr := json.Unmarshal(b, &nested); nerr != nil || len(nested) != 1 {
			return fmt.Errorf("coordinate %s: %w", string(b), err)
		}
		pair = nested[0]
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinate %s: want 2 elements, got %d", string(b), len(pair))
	}
	c.Row, c.Col = pair[0], pair[1]
	return nil
}

// Status 服务端返回的局面状态
type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusSuccess  Status = "success"
	StatusGameOver Status = "game_over"
)

func (s Status) known() bool {
	switch s {
	case "", StatusOngoing, StatusSuccess, StatusGameOver:
		return true
	}
	return false
}

// StartResult 开局快照
type StartResult struct {
	GameID    string
	Direction Direction
	Snake     []Coord
	Apple     Coord
	Score     int
}

// MoveResult 每次移动后的权威快照，完整覆盖本地棋盘
type MoveResult struct {
	Snake  []Coord
	Apple  Coord
	Score  int
	Status Status
	Key    string // 仅在 StatusSuccess 时出现
}
