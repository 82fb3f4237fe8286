package turn

import (
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
)

// PlayKind is what a play does.
type PlayKind string

// Play kinds.
const (
	PlayAbility PlayKind = "ability"
	PlayMove    PlayKind = "move"
	PlayPass    PlayKind = "pass"
)

// Play is one submitted action.
type Play struct {
	Character roster.CharacterID
	Kind      PlayKind
	Ability   roster.AbilityID
	Target    targeting.Target
	To        hexgrid.Cell
}

// UseAbility builds an ability play.
func UseAbility(c roster.CharacterID, a roster.AbilityID, target targeting.Target) Play {
	return Play{Character: c, Kind: PlayAbility, Ability: a, Target: target}
}

// MoveTo builds a movement play.
func MoveTo(c roster.CharacterID, to hexgrid.Cell) Play {
	return Play{Character: c, Kind: PlayMove, To: to}
}

// Pass builds a play that gives up the character's remaining action points.
func Pass(c roster.CharacterID) Play {
	return Play{Character: c, Kind: PlayPass}
}
