// Package combat turns a resolved ability into vitality and score changes
// through an effectiveness band table.
package combat

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidBandTable is returned by NewBandTable when the bands do not
// partition the integer line.
var ErrInvalidBandTable = errors.New("invalid band table")

// Band maps the effect scores in [Min, Max] to a percentage multiplier.
type Band struct {
	Name       string
	Min        int
	Max        int
	Multiplier int
}

// Contains reports whether score falls inside the band.
func (b Band) Contains(score int) bool { return score >= b.Min && score <= b.Max }

// BandTable is an ordered set of bands covering every int exactly once.
type BandTable struct {
	bands []Band
}

// NewBandTable validates bands and returns a table.
//
// Precondition: bands are given in ascending order.
// Postcondition: Returns a table whose bands partition [math.MinInt, math.MaxInt],
// or an error wrapping ErrInvalidBandTable listing every violation.
func NewBandTable(bands []Band) (*BandTable, error) {
	var errs []string
	if len(bands) == 0 {
		errs = append(errs, "at least one band is required")
	}
	for i, b := range bands {
		if b.Name == "" {
			errs = append(errs, fmt.Sprintf("band %d: name must not be empty", i))
		}
		if b.Min > b.Max {
			errs = append(errs, fmt.Sprintf("band %q: min %d is above max %d", b.Name, b.Min, b.Max))
		}
		if b.Multiplier < 0 {
			errs = append(errs, fmt.Sprintf("band %q: multiplier must be >= 0", b.Name))
		}
		if i == 0 {
			if b.Min != math.MinInt {
				errs = append(errs, fmt.Sprintf("band %q: first band must start at the minimum integer", b.Name))
			}
			continue
		}
		prev := bands[i-1]
		if prev.Max == math.MaxInt || b.Min != prev.Max+1 {
			errs = append(errs, fmt.Sprintf("band %q: must start right after %q ends", b.Name, prev.Name))
		}
	}
	if n := len(bands); n > 0 && bands[n-1].Max != math.MaxInt {
		errs = append(errs, fmt.Sprintf("band %q: last band must end at the maximum integer", bands[n-1].Name))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBandTable, strings.Join(errs, "; "))
	}
	return &BandTable{bands: append([]Band(nil), bands...)}, nil
}

// Lookup returns the band containing score.
func (t *BandTable) Lookup(score int) Band {
	i := sort.Search(len(t.bands), func(i int) bool { return t.bands[i].Max >= score })
	return t.bands[i]
}

// Bands returns a copy of the bands in ascending order.
func (t *BandTable) Bands() []Band {
	return append([]Band(nil), t.bands...)
}
