package roster

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
)

// ErrInconsistentRoster is wrapped by every roster validation failure.
var ErrInconsistentRoster = errors.New("inconsistent roster configuration")

// MaxAbilities is the largest loadout a character may carry.
const MaxAbilities = 10

// Validate checks every setup invariant of the registry against the board.
//
// Precondition: r and grid must be non-nil.
// Postcondition: Returns nil, or an error wrapping ErrInconsistentRoster that lists every violation.
func Validate(r *Registry, grid *hexgrid.Grid) error {
	var errs []string
	errs = append(errs, validateTeams(r)...)
	errs = append(errs, validateStats(r.stats)...)
	for _, a := range r.abilities {
		errs = append(errs, validateAbility(a, r.stats)...)
	}
	for _, c := range r.characters {
		errs = append(errs, validateCharacter(r, c)...)
	}
	errs = append(errs, validateOrders(r)...)
	errs = append(errs, validatePlacement(r, grid)...)
	return violations(errs)
}

func violations(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInconsistentRoster, strings.Join(errs, "; "))
}

func validateTeams(r *Registry) []string {
	var errs []string
	for _, t := range Teams {
		info, ok := r.teams[t]
		if !ok || info.Name == "" {
			errs = append(errs, fmt.Sprintf("team %s: metadata missing", t))
		}
	}
	return errs
}

func validateStats(c StatCatalog) []string {
	var errs []string
	for _, kind := range []StatKind{KindAttack, KindDefense, KindDamage} {
		seen := make(map[string]bool)
		for _, st := range c.of(kind) {
			if st.Key == "" {
				errs = append(errs, fmt.Sprintf("%s type with empty key", kind))
				continue
			}
			if seen[st.Key] {
				errs = append(errs, fmt.Sprintf("%s type %q declared twice", kind, st.Key))
			}
			seen[st.Key] = true
		}
	}
	return errs
}

func validateAbility(a *Ability, stats StatCatalog) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("ability %q: ", a.Key)+fmt.Sprintf(format, args...))
	}

	switch a.Focus {
	case FocusCharacter, FocusArea, FocusSelf:
	default:
		add("unknown focus %q", a.Focus)
	}
	switch a.Access {
	case AccessDirect, AccessIndirect, AccessNone:
	default:
		add("unknown access %q", a.Access)
	}
	switch a.Antagonist {
	case Opponent, Ally, Self:
	default:
		add("unknown antagonist %q", a.Antagonist)
	}

	if a.Cost < 0 {
		add("cost must be >= 0, got %d", a.Cost)
	}
	if a.Focus == FocusSelf {
		if a.Antagonist != Self {
			add("self focus requires self antagonist")
		}
		if a.Access != AccessNone {
			add("self focus requires access none")
		}
	} else {
		if a.Range <= 0 {
			add("range must be > 0, got %d", a.Range)
		}
		if a.Antagonist == Self {
			add("self antagonist requires self focus")
		}
		if a.Access == AccessNone {
			add("access none requires self focus")
		}
	}
	if a.Focus == FocusArea && a.Radius <= 0 {
		add("area radius must be > 0, got %d", a.Radius)
	}
	if a.Focus != FocusArea && a.Radius != 0 {
		add("radius is only allowed on area abilities")
	}

	if a.Payloads() != 1 {
		add("must carry exactly one payload, has %d", a.Payloads())
	}
	switch a.Antagonist {
	case Opponent:
		if a.Offense == nil {
			add("opponent abilities need an offense payload")
			break
		}
		if a.Offense.Damage < 0 {
			add("damage must be >= 0, got %d", a.Offense.Damage)
		}
		errs = append(errs, undeclared(a.Key, stats, KindAttack, a.Offense.AttackType)...)
		errs = append(errs, undeclared(a.Key, stats, KindDefense, a.Offense.DefenseType)...)
		errs = append(errs, undeclared(a.Key, stats, KindDamage, a.Offense.DamageType)...)
	case Ally:
		if a.Heal == nil {
			add("ally abilities need a heal payload")
			break
		}
		if a.Heal.Amount < 0 {
			add("heal must be >= 0, got %d", a.Heal.Amount)
		}
		if (a.Heal.AttackType == "") != (a.Heal.DefenseType == "") {
			add("heal attack and defense types must be set together")
		} else if a.Heal.AttackType != "" {
			errs = append(errs, undeclared(a.Key, stats, KindAttack, a.Heal.AttackType)...)
			errs = append(errs, undeclared(a.Key, stats, KindDefense, a.Heal.DefenseType)...)
		}
	case Self:
		if len(a.SelfEffects) == 0 {
			add("self abilities need at least one self effect")
			break
		}
		kinds := make(map[StatKind]bool)
		for _, e := range a.SelfEffects {
			if e.Kind != KindAttack && e.Kind != KindDefense {
				add("self effect kind must be attack or defense, got %q", e.Kind)
				continue
			}
			kinds[e.Kind] = true
			errs = append(errs, undeclared(a.Key, stats, e.Kind, e.Type)...)
		}
		if len(kinds) > 1 {
			add("self effects must change attack scores or defense scores, not both")
		}
	}
	return errs
}

func undeclared(ability string, stats StatCatalog, kind StatKind, key string) []string {
	if stats.Has(kind, key) {
		return nil
	}
	return []string{fmt.Sprintf("ability %q: undeclared %s type %q", ability, kind, key)}
}

func validateCharacter(r *Registry, c *Character) []string {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("character %q: ", c.Name)+fmt.Sprintf(format, args...))
	}

	if c.Name == "" {
		errs = append(errs, fmt.Sprintf("character #%d: empty name", c.ID))
	}
	if !c.Team.Valid() {
		add("unknown team %q", c.Team)
	}
	if c.Initiative <= 0 {
		add("initiative must be > 0, got %d", c.Initiative)
	}
	if c.MaxAP <= 0 {
		add("action points must be > 0, got %d", c.MaxAP)
	}
	if c.MaxVitality <= 0 {
		add("vitality must be > 0, got %d", c.MaxVitality)
	}
	if n := len(c.Abilities); n < 1 || n > MaxAbilities {
		add("must hold 1-%d abilities, holds %d", MaxAbilities, n)
	}

	for _, kind := range []StatKind{KindAttack, KindDefense, KindDamage} {
		scores := c.Scores(kind)
		for _, key := range sortedKeys(scores) {
			v := scores[key]
			if !r.stats.Has(kind, key) {
				add("undeclared %s type %q", kind, key)
			}
			if v < 0 {
				add("%s score %q must be >= 0, got %d", kind, key, v)
			}
			if kind == KindDamage && v > 100 {
				add("reduction %q must be <= 100, got %d", key, v)
			}
		}
	}
	for _, st := range r.stats.Defense {
		if !c.HasDefense(st.Key) {
			add("missing defense type %q", st.Key)
		}
	}
	for _, st := range r.stats.Damage {
		if !c.HasReduction(st.Key) {
			add("missing damage type %q", st.Key)
		}
	}

	seen := make(map[AbilityID]bool)
	for _, id := range c.Abilities {
		a := r.Ability(id)
		if seen[id] {
			add("ability %q listed twice", a.Key)
		}
		seen[id] = true
		for _, key := range attackTypesUsed(a) {
			if !c.HasAttack(key) {
				add("ability %q needs attack type %q", a.Key, key)
			}
		}
	}
	return errs
}

func attackTypesUsed(a *Ability) []string {
	var out []string
	if a.Offense != nil {
		out = append(out, a.Offense.AttackType)
	}
	if a.Heal != nil && a.Heal.AttackType != "" {
		out = append(out, a.Heal.AttackType)
	}
	for _, e := range a.SelfEffects {
		if e.Kind == KindAttack {
			out = append(out, e.Type)
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func validateOrders(r *Registry) []string {
	var errs []string
	sizes := make(map[Team]int)
	names := make(map[string]bool)
	for _, c := range r.characters {
		if c.Name != "" && names[c.Name] {
			errs = append(errs, fmt.Sprintf("character name %q used twice", c.Name))
		}
		names[c.Name] = true
	}
	for _, t := range Teams {
		members := r.Members(t)
		sizes[t] = len(members)
		if len(members) == 0 {
			errs = append(errs, fmt.Sprintf("team %s has no characters", t))
			continue
		}
		for i, c := range members {
			if c.Order != i {
				errs = append(errs, fmt.Sprintf("team %s: orders must be unique and consecutive from 0, found %d at position %d", t, c.Order, i))
				break
			}
		}
	}
	if sizes[Left] != sizes[Right] {
		errs = append(errs, fmt.Sprintf("teams must be the same size, left has %d and right has %d", sizes[Left], sizes[Right]))
	}
	return errs
}

func validatePlacement(r *Registry, grid *hexgrid.Grid) []string {
	var errs []string
	taken := make(map[hexgrid.Cell]string)
	for _, c := range r.characters {
		switch {
		case !grid.InBounds(c.Start):
			errs = append(errs, fmt.Sprintf("character %q: start cell %s is off the board", c.Name, c.Start))
		case grid.IsWall(c.Start):
			errs = append(errs, fmt.Sprintf("character %q: start cell %s is a wall", c.Name, c.Start))
		}
		if other, dup := taken[c.Start]; dup {
			errs = append(errs, fmt.Sprintf("characters %q and %q share start cell %s", other, c.Name, c.Start))
		}
		taken[c.Start] = c.Name
	}
	return errs
}
