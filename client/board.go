package client

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const (
	// BoardSize 棋盘边长（与服务端约定，固定值）
	BoardSize = 20
)

// Cell 单元格的视觉标记
type Cell uint8

const (
	CellEmpty Cell = iota
	CellSnake
	CellApple
)

func (c Cell) String() string {
	switch c {
	case CellSnake:
		return "snake"
	case CellApple:
		return "apple"
	default:
		return ""
	}
}

// MarkedCell 一个被标记的格子，ID 形如 cell-<row>-<col>
type MarkedCell struct {
	ID    string `json:"id"`
	Class string `json:"class"`
}

// Board N×N 可寻址网格，每次更新整体清空重建，不做增量 diff
type Board struct {
	size  int
	cells [][]Cell
}

func NewBoard(size int) *Board {
	b := &Board{size: size}
	b.reset()
	return b
}

func (b *Board) Size() int { return b.size }

// TotalCells 蛇身长度达到该值即为铺满棋盘
func (b *Board) TotalCells() int { return b.size * b.size }

func (b *Board) reset() {
	b.cells = make([][]Cell, b.size)
	for row := range b.cells {
		b.cells[row] = make([]Cell, b.size)
	}
}

// Render 先标记蛇身再标记苹果；二者重叠时苹果覆盖
func (b *Board) Render(snake []Coord, apple Coord) {
	b.reset()
	lo.ForEach(snake, func(c Coord, _ int) {
		b.mark(c, CellSnake)
	})
	b.mark(apple, CellApple)
}

func (b *Board) mark(c Coord, v Cell) {
	if !c.In(b.size) {
		return
	}
	b.cells[c.Row][c.Col] = v
}

func (b *Board) At(row, col int) Cell {
	if !(Coord{Row: row, Col: col}).In(b.size) {
		return CellEmpty
	}
	return b.cells[row][col]
}

// Marks 返回所有非空格子
func (b *Board) Marks() map[Coord]Cell {
	marks := make(map[Coord]Cell)
	for row := range b.cells {
		for col, v := range b.cells[row] {
			if v != CellEmpty {
				marks[Coord{Row: row, Col: col}] = v
			}
		}
	}
	return marks
}

// Cells 按行列顺序列出被标记的格子，供浏览器端按 ID 着色
func (b *Board) Cells() []MarkedCell {
	out := make([]MarkedCell, 0, 8)
	for row := range b.cells {
		for col, v := range b.cells[row] {
			if v == CellEmpty {
				continue
			}
			out = append(out, MarkedCell{ID: CellID(row, col), Class: v.String()})
		}
	}
	return out
}

func CellID(row, col int) string {
	return fmt.Sprintf("cell-%d-%d", row, col)
}

// String 终端文本形式：# 蛇身，@ 苹果，. 空格
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow(b.size * (2*b.size + 1))
	for row := range b.cells {
		line := lo.Map(b.cells[row], func(v Cell, _ int) string {
			switch v {
			case CellSnake:
				return "#"
			case CellApple:
				return "@"
			default:
				return "."
			}
		})
		sb.WriteString(strings.Join(line, " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}
