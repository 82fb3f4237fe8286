package turn

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/korodan/internal/game/dice"
	"github.com/cory-johannsen/korodan/internal/game/roster"
)

// policy decides who plays when. The orchestrator owns the phases and calls
// into the policy at each boundary; policies never emit events.
type policy interface {
	mode() Mode
	// startRound runs after action points are restored.
	startRound(b *board)
	// needsSelection reports whether each turn opens with a character choice.
	needsSelection() bool
	// candidates lists the characters selectable for the next turn.
	candidates(b *board) []*roster.Character
	// selectTurn validates a choice and makes it the current turn.
	selectTurn(b *board, ids []roster.CharacterID) error
	// startTurn opens a turn without a choice and reports whether one could open.
	startTurn(b *board) bool
	// next returns the character that must play now; false once the turn is over.
	next(b *board) (*roster.Character, bool)
	// played records a committed play by c.
	played(b *board, c *roster.Character)
	// endTurn clears the finished turn.
	endTurn(b *board)
	roundOver(b *board) bool
	participants() []roster.CharacterID
	// activeTeam is the choosing team when no character is expected.
	activeTeam(b *board) roster.Team
}

func newPolicy(mode Mode, second SecondPlay) (policy, error) {
	switch mode {
	case ModePairs:
		return &pairs{}, nil
	case ModeTeamOrder:
		return &teamOrder{}, nil
	case ModeFreeDouble:
		if !second.Valid() {
			return nil, fmt.Errorf("unknown second play policy %q", second)
		}
		return &freeDouble{second: second}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}
}

// board is what policies may read and draw from.
type board struct {
	reg      *roster.Registry
	picker   *dice.Picker
	moveCost int
}

// eligible reports whether c can take part in a turn.
func (b *board) eligible(c *roster.Character) bool { return !c.Incapacitated() }

// canAct reports whether c can afford a move step or any of its abilities.
func (b *board) canAct(c *roster.Character) bool {
	if c.Incapacitated() {
		return false
	}
	if c.AP() >= b.moveCost {
		return true
	}
	for _, id := range c.Abilities {
		if a := b.reg.Ability(id); a != nil && a.Cost <= c.AP() {
			return true
		}
	}
	return false
}

func (b *board) anyEligible(chars []*roster.Character) bool {
	for _, c := range chars {
		if b.eligible(c) {
			return true
		}
	}
	return false
}

// first returns whichever of x and y has the higher initiative, drawing at
// random on a tie.
func (b *board) first(reason string, x, y *roster.Character) *roster.Character {
	switch {
	case x.Initiative > y.Initiative:
		return x
	case y.Initiative > x.Initiative:
		return y
	case b.picker.Coin(reason):
		return x
	default:
		return y
	}
}

// topToBottom returns the members of t sorted by board row, then column.
func (b *board) topToBottom(t roster.Team) []*roster.Character {
	out := b.reg.Members(t)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].Cell(), out[j].Cell()
		if ci.Row != cj.Row {
			return ci.Row < cj.Row
		}
		return ci.Col < cj.Col
	})
	return out
}

func ids(chars []*roster.Character) []roster.CharacterID {
	out := make([]roster.CharacterID, len(chars))
	for i, c := range chars {
		out[i] = c.ID
	}
	return out
}
