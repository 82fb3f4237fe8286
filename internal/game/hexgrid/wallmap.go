package hexgrid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedWallGrid is wrapped by every wall map parse failure.
var ErrMalformedWallGrid = errors.New("malformed wall grid")

// GridError locates a wall map parse failure. Row and Column are zero-based;
// Column is a character offset within the row, or -1 when the whole row is at fault.
type GridError struct {
	Row    int
	Column int
	Reason string
}

func (e *GridError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("%s: row %d: %s", ErrMalformedWallGrid, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s: row %d column %d: %s", ErrMalformedWallGrid, e.Row, e.Column, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedWallGrid.
func (e *GridError) Unwrap() error { return ErrMalformedWallGrid }

const (
	openMark   = '-'
	cellStride = 3
)

// RowWidth returns the number of characters every wall map row must have.
func (g Geometry) RowWidth() int {
	return (g.Columns-1)*cellStride + 1
}

// ParseWallMap reads a wall map drawn for geom.
//
// The map has geom.Rows lines of exactly RowWidth characters. A cell {Col, Row}
// sits at character Col*3 of line Row: '-' marks it open and an uppercase
// letter marks a wall. Every other position must be a space.
//
// Precondition: geom.Columns and geom.Rows must be positive.
// Postcondition: Returns a Grid or an error wrapping ErrMalformedWallGrid.
func ParseWallMap(r io.Reader, geom Geometry) (*Grid, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading wall grid: %w", err)
	}
	if len(lines) != geom.Rows {
		return nil, &GridError{
			Row:    len(lines),
			Column: -1,
			Reason: fmt.Sprintf("expected %d rows, got %d", geom.Rows, len(lines)),
		}
	}

	width := geom.RowWidth()
	var walls []Cell
	for row, line := range lines {
		if len(line) != width {
			return nil, &GridError{
				Row:    row,
				Column: -1,
				Reason: fmt.Sprintf("expected %d characters, got %d", width, len(line)),
			}
		}
		for pos := 0; pos < len(line); pos++ {
			ch := line[pos]
			slot := pos%cellStride == 0 && Cell{Col: pos / cellStride, Row: row}.Valid()
			switch {
			case !slot && ch == ' ':
			case !slot:
				return nil, &GridError{Row: row, Column: pos, Reason: fmt.Sprintf("unexpected %q between cells", ch)}
			case ch == openMark:
			case ch >= 'A' && ch <= 'Z':
				walls = append(walls, Cell{Col: pos / cellStride, Row: row})
			default:
				return nil, &GridError{Row: row, Column: pos, Reason: fmt.Sprintf("cell marker must be '-' or an uppercase letter, got %q", ch)}
			}
		}
	}
	return NewGrid(geom, walls), nil
}

// ParseWallMapString is ParseWallMap over an in-memory map.
func ParseWallMapString(s string, geom Geometry) (*Grid, error) {
	return ParseWallMap(strings.NewReader(s), geom)
}

// Format renders g in the wall map text format, walls drawn as 'O'.
//
// Postcondition: ParseWallMapString(g.Format(), g.Geometry()) yields the same walls.
func (g *Grid) Format() string {
	var b strings.Builder
	width := g.geom.RowWidth()
	for row := 0; row < g.geom.Rows; row++ {
		line := []byte(strings.Repeat(" ", width))
		for col := row % 2; col < g.geom.Columns; col += 2 {
			mark := byte(openMark)
			if g.IsWall(Cell{Col: col, Row: row}) {
				mark = 'O'
			}
			line[col*cellStride] = mark
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}
