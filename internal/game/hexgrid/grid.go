package hexgrid

import (
	"math"
	"sort"
)

// Geometry is the size of the board in columns and rows.
type Geometry struct {
	Columns int
	Rows    int
}

// DefaultGeometry is the 49-column by 51-row board the wall maps are drawn for.
var DefaultGeometry = Geometry{Columns: 49, Rows: 51}

// Contains reports whether c is a valid cell inside the geometry.
func (g Geometry) Contains(c Cell) bool {
	return c.Valid() && c.Col >= 0 && c.Col < g.Columns && c.Row >= 0 && c.Row < g.Rows
}

// Grid is an immutable board: its geometry plus the set of wall cells.
type Grid struct {
	geom  Geometry
	walls map[Cell]struct{}
}

// NewGrid builds a grid with the given walls.
//
// Precondition: every wall must be contained in geom.
// Postcondition: the returned Grid is never mutated.
func NewGrid(geom Geometry, walls []Cell) *Grid {
	set := make(map[Cell]struct{}, len(walls))
	for _, w := range walls {
		set[w] = struct{}{}
	}
	return &Grid{geom: geom, walls: set}
}

// Geometry returns the board size.
func (g *Grid) Geometry() Geometry { return g.geom }

// InBounds reports whether c is a cell of this board.
func (g *Grid) InBounds(c Cell) bool { return g.geom.Contains(c) }

// IsWall reports whether c is blocked by a wall fragment.
func (g *Grid) IsWall(c Cell) bool {
	_, ok := g.walls[c]
	return ok
}

// Walls returns the wall cells ordered top to bottom.
func (g *Grid) Walls() []Cell {
	out := make([]Cell, 0, len(g.walls))
	for c := range g.walls {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Distance returns the hex distance between a and b.
func (g *Grid) Distance(a, b Cell) int { return Distance(a, b) }

// Line returns the cells crossed by the straight hex line from a to b, endpoints included.
// The same set of cells is returned for (a, b) and (b, a).
//
// Precondition: a and b must be Valid.
// Postcondition: len(result) == Distance(a, b) + 1.
func Line(a, b Cell) []Cell {
	// Rounding ties are broken by a fixed nudge, so always walk from the
	// lesser endpoint to keep the line symmetric.
	from, to := a, b
	reversed := Less(b, a)
	if reversed {
		from, to = b, a
	}

	n := Distance(from, to)
	out := make([]Cell, 0, n+1)
	if n == 0 {
		return append(out, from)
	}

	ca, cb := toCube(from), toCube(to)
	const eq, er, es = 1e-6, 2e-6, -3e-6
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		fq := lerp(float64(ca.q)+eq, float64(cb.q)+eq, t)
		fr := lerp(float64(ca.r)+er, float64(cb.r)+er, t)
		fs := lerp(float64(ca.s)+es, float64(cb.s)+es, t)
		out = append(out, fromCube(cubeRound(fq, fr, fs)))
	}
	if reversed {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func cubeRound(fq, fr, fs float64) cube {
	q, r, s := math.Round(fq), math.Round(fr), math.Round(fs)
	dq, dr, ds := math.Abs(q-fq), math.Abs(r-fr), math.Abs(s-fs)
	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	default:
		s = -q - r
	}
	return cube{q: int(q), r: int(r), s: int(s)}
}

// LineOfSight reports whether no cell on the line from a to b, endpoints included, is a wall.
//
// Precondition: a and b must be Valid.
// Postcondition: LineOfSight(a, b) == LineOfSight(b, a).
func (g *Grid) LineOfSight(a, b Cell) bool {
	for _, c := range Line(a, b) {
		if g.IsWall(c) {
			return false
		}
	}
	return true
}

// CellsInRadius returns every in-bounds cell within radius steps of center,
// ordered top to bottom.
//
// Precondition: radius >= 0.
func (g *Grid) CellsInRadius(center Cell, radius int) []Cell {
	if radius < 0 {
		return nil
	}
	cc := toCube(center)
	var out []Cell
	for dq := -radius; dq <= radius; dq++ {
		lo := max(-radius, -dq-radius)
		hi := min(radius, -dq+radius)
		for dr := lo; dr <= hi; dr++ {
			c := fromCube(cube{q: cc.q + dq, r: cc.r + dr, s: cc.s - dq - dr})
			if g.InBounds(c) {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

// Neighbors returns the in-bounds cells adjacent to c.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, len(neighborOffsets))
	for _, off := range neighborOffsets {
		n := Cell{Col: c.Col + off.Col, Row: c.Row + off.Row}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Path returns the shortest walk from `from` to `to` that steps only on open,
// in-bounds cells accepted by passable. The result excludes from and ends with to.
//
// Precondition: from and to must be in bounds; passable may be nil (all open cells pass).
// Postcondition: ok is false when to cannot be reached; len(path) is the step count otherwise.
func (g *Grid) Path(from, to Cell, passable func(Cell) bool) (path []Cell, ok bool) {
	if from == to {
		return nil, true
	}
	prev := map[Cell]Cell{from: from}
	queue := []Cell{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(cur) {
			if _, seen := prev[n]; seen {
				continue
			}
			if g.IsWall(n) || (passable != nil && !passable(n)) {
				continue
			}
			prev[n] = cur
			if n == to {
				return unwind(prev, from, to), true
			}
			queue = append(queue, n)
		}
	}
	return nil, false
}

func unwind(prev map[Cell]Cell, from, to Cell) []Cell {
	var rev []Cell
	for c := to; c != from; c = prev[c] {
		rev = append(rev, c)
	}
	out := make([]Cell, len(rev))
	for i, c := range rev {
		out[len(rev)-1-i] = c
	}
	return out
}
