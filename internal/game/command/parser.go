package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
)

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command, case preserved.
	Args []string
}

// Arg returns the i-th argument or "" when absent.
func (p ParseResult) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ParseResult{}
	}
	res := ParseResult{Command: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		res.Args = fields[1:]
	}
	return res
}

// LooksLikeCell reports whether s is written as a cell, "col,row".
func LooksLikeCell(s string) bool {
	return strings.Contains(s, ",")
}

// ParseCell reads a cell written as "col,row".
//
// Postcondition: Returns a valid cell or an error naming the input.
func ParseCell(s string) (hexgrid.Cell, error) {
	colStr, rowStr, ok := strings.Cut(s, ",")
	if !ok {
		return hexgrid.Cell{}, fmt.Errorf("cell %q must be written col,row", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(colStr))
	if err != nil {
		return hexgrid.Cell{}, fmt.Errorf("cell %q: bad column: %w", s, err)
	}
	row, err := strconv.Atoi(strings.TrimSpace(rowStr))
	if err != nil {
		return hexgrid.Cell{}, fmt.Errorf("cell %q: bad row: %w", s, err)
	}
	c := hexgrid.Cell{Col: col, Row: row}
	if !c.Valid() {
		return hexgrid.Cell{}, fmt.Errorf("cell %q: column and row must have the same parity", s)
	}
	return c, nil
}
