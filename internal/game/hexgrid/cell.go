// Package hexgrid models the hexagonal board: cell coordinates, the wall map,
// line of sight, radius queries and wall-avoiding paths.
//
// Cells use doubled-height coordinates: a cell {Col, Row} exists only when
// Col+Row is even. Moving one column right shifts half a row, so the six
// neighbors of {c, r} are {c, r±2} and {c±1, r±1}.
package hexgrid

import "fmt"

// Cell is a board position in doubled-height coordinates.
type Cell struct {
	Col int `yaml:"col"`
	Row int `yaml:"row"`
}

// String renders the cell as "(col,row)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Valid reports whether c has the parity of a real hex cell.
func (c Cell) Valid() bool {
	return (c.Col+c.Row)%2 == 0
}

// cube holds cube coordinates; q+r+s is always zero.
type cube struct {
	q, r, s int
}

func toCube(c Cell) cube {
	q := c.Col
	r := (c.Row - c.Col) / 2
	return cube{q: q, r: r, s: -q - r}
}

func fromCube(h cube) Cell {
	return Cell{Col: h.q, Row: h.q + 2*h.r}
}

// neighborOffsets lists the six neighbor displacements in doubled-height coordinates.
var neighborOffsets = [6]Cell{
	{Col: 0, Row: -2},
	{Col: 1, Row: -1},
	{Col: 1, Row: 1},
	{Col: 0, Row: 2},
	{Col: -1, Row: 1},
	{Col: -1, Row: -1},
}

// Distance returns the number of hex steps between a and b.
//
// Precondition: a and b must be Valid.
// Postcondition: Distance(a, b) == Distance(b, a) and Distance(a, a) == 0.
func Distance(a, b Cell) int {
	ca, cb := toCube(a), toCube(b)
	return max(abs(ca.q-cb.q), abs(ca.r-cb.r), abs(ca.s-cb.s))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Less reports whether a comes before b reading the board top to bottom, then left to right.
func Less(a, b Cell) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}
