package turn

import (
	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
)

// EventKind names an Event.
type EventKind string

// Event kinds.
const (
	EventRoundStarted      EventKind = "round_started"
	EventTurnStarted       EventKind = "turn_started"
	EventPlayResolved      EventKind = "play_resolved"
	EventCharacterDefeated EventKind = "character_defeated"
	EventBuffsExpired      EventKind = "buffs_expired"
	EventTurnEnded         EventKind = "turn_ended"
	EventRoundEnded        EventKind = "round_ended"
	EventMatchEnded        EventKind = "match_ended"
)

// PlayRecord describes a committed play.
type PlayRecord struct {
	Actor   roster.CharacterID
	Kind    PlayKind
	Ability roster.AbilityID // PlayAbility only
	Cost    int
	// From and Path are set for PlayMove; Path excludes From.
	From     hexgrid.Cell
	Path     []hexgrid.Cell
	Outcomes []combat.Outcome
}

// Event is delivered to subscribers after the call that produced it returns
// its lock, in the order the events happened.
type Event struct {
	Kind  EventKind
	Round int
	Turn  int
	// Team is the active team for turn events and the winner for EventMatchEnded.
	Team roster.Team
	// Characters are the turn participants, or the defeated character.
	Characters []roster.CharacterID
	Play       *PlayRecord
	Buffs      []combat.Buff
}

// Handler receives events. Handlers may call read-only methods and
// SubmitPlay; events they cause are delivered after the current batch.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}
