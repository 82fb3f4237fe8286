package targeting

import (
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
)

type targetKind int

const (
	targetNone targetKind = iota
	targetCharacter
	targetCell
)

// Target is what a player points an ability at: nothing, a character or a board cell.
type Target struct {
	kind      targetKind
	character roster.CharacterID
	cell      hexgrid.Cell
}

// NoTarget is the empty target used by self abilities.
func NoTarget() Target { return Target{} }

// AtCharacter targets a character.
func AtCharacter(id roster.CharacterID) Target {
	return Target{kind: targetCharacter, character: id}
}

// AtCell targets a board cell.
func AtCell(c hexgrid.Cell) Target {
	return Target{kind: targetCell, cell: c}
}

// IsNone reports whether the target is empty.
func (t Target) IsNone() bool { return t.kind == targetNone }

// Character returns the targeted character, if any.
func (t Target) Character() (roster.CharacterID, bool) {
	return t.character, t.kind == targetCharacter
}

// Cell returns the targeted cell, if any.
func (t Target) Cell() (hexgrid.Cell, bool) {
	return t.cell, t.kind == targetCell
}

// Resolution is the validated outcome of targeting. It is never mutated after Resolve returns.
type Resolution struct {
	actor   roster.CharacterID
	ability roster.AbilityID
	center  hexgrid.Cell
	targets []roster.CharacterID
	dropped []roster.CharacterID
}

// Actor returns the acting character.
func (r Resolution) Actor() roster.CharacterID { return r.actor }

// Ability returns the ability being used.
func (r Resolution) Ability() roster.AbilityID { return r.ability }

// Center returns the cell the ability is aimed at.
func (r Resolution) Center() hexgrid.Cell { return r.center }

// Targets returns the affected characters in board order.
func (r Resolution) Targets() []roster.CharacterID {
	return append([]roster.CharacterID(nil), r.targets...)
}

// Dropped returns area candidates removed for lack of line of sight.
func (r Resolution) Dropped() []roster.CharacterID {
	return append([]roster.CharacterID(nil), r.dropped...)
}

// Resolver checks abilities against the roster and board.
type Resolver struct {
	reg  *roster.Registry
	grid *hexgrid.Grid
}

// NewResolver creates a Resolver.
//
// Precondition: reg and grid must be non-nil.
func NewResolver(reg *roster.Registry, grid *hexgrid.Grid) *Resolver {
	return &Resolver{reg: reg, grid: grid}
}

// Resolve validates actor using ability on target. The first failed check wins:
// resources, then focus, antagonist class, range and line of sight.
//
// Precondition: actor and ability must be handles of the resolver's registry.
// Postcondition: Returns a Resolution with at least one target, or a *Rejection.
// Neither path mutates any character.
func (r *Resolver) Resolve(actorID roster.CharacterID, abilityID roster.AbilityID, target Target) (Resolution, error) {
	actor := r.reg.Character(actorID)
	if actor == nil {
		return Resolution{}, Reject(ErrInvalidFocusTarget, "unknown character %d", actorID)
	}
	ability := r.reg.Ability(abilityID)
	if ability == nil || !actor.HasAbility(abilityID) {
		return Resolution{}, Reject(ErrInvalidFocusTarget, "%s does not hold ability %d", actor.Name, abilityID)
	}
	if !actor.Alive() {
		return Resolution{}, Reject(ErrInsufficientResources, "%s has no vitality", actor.Name)
	}
	if actor.AP() < ability.Cost {
		return Resolution{}, Reject(ErrInsufficientResources, "%s has %d AP, %s costs %d", actor.Name, actor.AP(), ability.Key, ability.Cost)
	}

	res := Resolution{actor: actorID, ability: abilityID}
	switch ability.Focus {
	case roster.FocusSelf:
		if id, ok := target.Character(); !target.IsNone() && (!ok || id != actorID) {
			return Resolution{}, Reject(ErrInvalidFocusTarget, "%s only affects its user", ability.Key)
		}
		res.center = actor.Cell()
		res.targets = []roster.CharacterID{actorID}
		return res, nil
	case roster.FocusCharacter:
		return r.resolveCharacter(res, actor, ability, target)
	case roster.FocusArea:
		return r.resolveArea(res, actor, ability, target)
	default:
		return Resolution{}, Reject(ErrInvalidFocusTarget, "unknown focus %q", ability.Focus)
	}
}

func (r *Resolver) resolveCharacter(res Resolution, actor *roster.Character, ability *roster.Ability, target Target) (Resolution, error) {
	var victim *roster.Character
	if id, ok := target.Character(); ok {
		victim = r.reg.Character(id)
	} else if cell, ok := target.Cell(); ok {
		victim, _ = r.reg.OccupantAt(cell)
	}
	if victim == nil || !victim.Alive() {
		return Resolution{}, Reject(ErrInvalidFocusTarget, "%s needs a living character", ability.Key)
	}
	if !classMatches(ability.Antagonist, actor, victim) {
		return Resolution{}, Reject(ErrWrongAntagonist, "%s cannot be used on %s", ability.Key, victim.Name)
	}
	if d := hexgrid.Distance(actor.Cell(), victim.Cell()); d > ability.Range {
		return Resolution{}, Reject(ErrOutOfRange, "%s is %d cells away, range is %d", victim.Name, d, ability.Range)
	}
	if ability.Access == roster.AccessDirect && !r.grid.LineOfSight(actor.Cell(), victim.Cell()) {
		return Resolution{}, Reject(ErrBlockedByWall, "no line of sight to %s", victim.Name)
	}
	res.center = victim.Cell()
	res.targets = []roster.CharacterID{victim.ID}
	return res, nil
}

func (r *Resolver) resolveArea(res Resolution, actor *roster.Character, ability *roster.Ability, target Target) (Resolution, error) {
	var center hexgrid.Cell
	if id, ok := target.Character(); ok {
		c := r.reg.Character(id)
		if c == nil || !c.Alive() {
			return Resolution{}, Reject(ErrInvalidFocusTarget, "%s needs a cell or a living character", ability.Key)
		}
		center = c.Cell()
	} else if cell, ok := target.Cell(); ok {
		center = cell
	} else {
		return Resolution{}, Reject(ErrInvalidFocusTarget, "%s needs a cell or a living character", ability.Key)
	}
	if !r.grid.InBounds(center) {
		return Resolution{}, Reject(ErrInvalidFocusTarget, "cell %s is off the board", center)
	}
	if d := hexgrid.Distance(actor.Cell(), center); d > ability.Range {
		return Resolution{}, Reject(ErrOutOfRange, "cell %s is %d cells away, range is %d", center, d, ability.Range)
	}

	var candidates []*roster.Character
	for _, cell := range r.grid.CellsInRadius(center, ability.Radius) {
		c, ok := r.reg.OccupantAt(cell)
		if ok && classMatches(ability.Antagonist, actor, c) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return Resolution{}, Reject(ErrInvalidFocusTarget, "no valid characters around %s", center)
	}

	res.center = center
	for _, c := range candidates {
		if ability.Access == roster.AccessDirect && !r.grid.LineOfSight(actor.Cell(), c.Cell()) {
			res.dropped = append(res.dropped, c.ID)
			continue
		}
		res.targets = append(res.targets, c.ID)
	}
	if len(res.targets) == 0 {
		return Resolution{}, Reject(ErrBlockedByWall, "every character around %s is behind a wall", center)
	}
	return res, nil
}

// classMatches reports whether other is a valid target of class for actor.
// Ally includes the actor itself so self-repair abilities stay usable.
func classMatches(class roster.Antagonist, actor, other *roster.Character) bool {
	switch class {
	case roster.Opponent:
		return other.Team != actor.Team
	case roster.Ally:
		return other.Team == actor.Team
	case roster.Self:
		return other.ID == actor.ID
	default:
		return false
	}
}

// Preview lists what an ability could legally be aimed at right now.
type Preview struct {
	Characters []roster.CharacterID
	Cells      []hexgrid.Cell
}

// Legal returns every character, and for area abilities every cell, that
// Resolve would currently accept for actor using ability.
//
// Postcondition: Resolve succeeds for each returned target; nothing is mutated.
func (r *Resolver) Legal(actorID roster.CharacterID, abilityID roster.AbilityID) Preview {
	var p Preview
	actor := r.reg.Character(actorID)
	ability := r.reg.Ability(abilityID)
	if actor == nil || ability == nil {
		return p
	}
	if ability.Focus == roster.FocusSelf {
		if _, err := r.Resolve(actorID, abilityID, NoTarget()); err == nil {
			p.Characters = []roster.CharacterID{actorID}
		}
		return p
	}
	for _, c := range r.reg.Characters() {
		if _, err := r.Resolve(actorID, abilityID, AtCharacter(c.ID)); err == nil {
			p.Characters = append(p.Characters, c.ID)
		}
	}
	if ability.Focus == roster.FocusArea {
		for _, cell := range r.grid.CellsInRadius(actor.Cell(), ability.Range) {
			if _, err := r.Resolve(actorID, abilityID, AtCell(cell)); err == nil {
				p.Cells = append(p.Cells, cell)
			}
		}
	}
	return p
}
