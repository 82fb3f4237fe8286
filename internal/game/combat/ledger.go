package combat

import "github.com/cory-johannsen/korodan/internal/game/roster"

// Expiry is the boundary at which self-effects wear off.
type Expiry string

// Expiry boundaries, from shortest to longest.
const (
	ExpireTurn  Expiry = "turn"
	ExpireRound Expiry = "round"
	ExpireMatch Expiry = "match"
)

func (e Expiry) rank() int {
	switch e {
	case ExpireTurn:
		return 0
	case ExpireRound:
		return 1
	default:
		return 2
	}
}

// Valid reports whether e is a known boundary.
func (e Expiry) Valid() bool {
	return e == ExpireTurn || e == ExpireRound || e == ExpireMatch
}

// Buff is one applied self-effect. Delta is what was actually added to the
// score after flooring at zero.
type Buff struct {
	Character roster.CharacterID
	Kind      roster.StatKind
	Type      string
	Delta     int
}

// Ledger records applied self-effects so they can be reverted when their
// expiry boundary passes. It is not safe for concurrent use.
type Ledger struct {
	expiry Expiry
	active []Buff
}

// NewLedger creates an empty Ledger whose buffs last until expiry.
//
// Precondition: expiry.Valid().
func NewLedger(expiry Expiry) *Ledger {
	return &Ledger{expiry: expiry}
}

// Record adds b to the ledger. Zero deltas are ignored.
func (l *Ledger) Record(b Buff) {
	if b.Delta == 0 {
		return
	}
	l.active = append(l.active, b)
}

// Active returns a copy of the buffs still in force, oldest first.
func (l *Ledger) Active() []Buff {
	return append([]Buff(nil), l.active...)
}

// Expire reverts every active buff when boundary is at least as long as the
// ledger's expiry, newest first, and returns the reverted buffs.
//
// Postcondition: Active() is empty if anything was reverted.
func (l *Ledger) Expire(reg *roster.Registry, boundary Expiry) []Buff {
	if boundary.rank() < l.expiry.rank() || len(l.active) == 0 {
		return nil
	}
	reverted := l.active
	for i := len(reverted) - 1; i >= 0; i-- {
		b := reverted[i]
		if c := reg.Character(b.Character); c != nil {
			c.AdjustScore(b.Kind, b.Type, -b.Delta)
		}
	}
	l.active = nil
	return reverted
}
