// Package turn sequences a match: rounds, turns and plays, under one of three
// selectable policies.
package turn

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/korodan/internal/game/roster"
)

// Phase is where the orchestrator's state machine stands.
type Phase string

// Phases. ApplyingPlay is held while a play's effects are being computed.
const (
	PhaseNotStarted          Phase = "not_started"
	PhaseSelectingCharacters Phase = "selecting_characters"
	PhaseAwaitingPlay        Phase = "awaiting_play"
	PhaseSelectingTarget     Phase = "selecting_target"
	PhaseApplyingPlay        Phase = "applying_play"
	PhaseMatchEnded          Phase = "match_ended"
)

// Mode selects the turn policy.
type Mode string

// Modes, named as in configuration.
const (
	ModePairs      Mode = "pairs"
	ModeTeamOrder  Mode = "team_order"
	ModeFreeDouble Mode = "free_double"
)

// SecondPlay decides what Free-Double does when the chosen character cannot
// afford its second play.
type SecondPlay string

// Second play policies.
const (
	// SecondPlayReject offers the second play anyway; unaffordable plays are rejected.
	SecondPlayReject SecondPlay = "reject"
	// SecondPlaySkip ends the turn when the character cannot act.
	SecondPlaySkip SecondPlay = "skip"
)

// Valid reports whether s is a known second play policy.
func (s SecondPlay) Valid() bool {
	return s == SecondPlayReject || s == SecondPlaySkip
}

// Errors returned for calls made in the wrong phase or by the wrong
// character. Both are rejection reasons: nothing is mutated.
var (
	ErrWrongPhase   = errors.New("not allowed in this phase")
	ErrNotYourTurn  = errors.New("not this character's turn")
	ErrBadSelection = errors.New("invalid character selection")
	ErrUnknownMode  = errors.New("unknown turn mode")
)

// ParseMode converts a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModePairs, ModeTeamOrder, ModeFreeDouble:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Selection is an ability picked by the active character whose target has
// not been committed yet.
type Selection struct {
	Character roster.CharacterID
	Ability   roster.AbilityID
}

// State is a snapshot of the orchestrator.
type State struct {
	Phase Phase
	Mode  Mode
	Round int
	Turn  int
	// ActiveTeam is the team whose character is expected to play, or the
	// team choosing in Free-Double. Empty when no team is active.
	ActiveTeam roster.Team
	// Active lists the characters taking part in the current turn.
	Active []roster.CharacterID
	// Expected is the character that must play next; valid when HasExpected.
	Expected    roster.CharacterID
	HasExpected bool
	Selection   *Selection
	Winner      roster.Team
}
