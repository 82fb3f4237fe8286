// Package roster provides the static and mutable records of a match: teams,
// stat types, abilities and characters, held in a registry with stable handles.
package roster

import "github.com/cory-johannsen/korodan/internal/game/hexgrid"

// Team identifies one side of the board.
type Team string

// The two sides of the board.
const (
	Left  Team = "left"
	Right Team = "right"
)

// Teams lists both sides in a fixed order.
var Teams = [2]Team{Left, Right}

// Valid reports whether t is Left or Right.
func (t Team) Valid() bool { return t == Left || t == Right }

// Opponent returns the other side.
//
// Precondition: t must be Valid.
func (t Team) Opponent() Team {
	if t == Left {
		return Right
	}
	return Left
}

// TeamInfo is the display metadata of a team.
type TeamInfo struct {
	Name   string
	Emblem string // image file under the assets folder
}

// Focus is what an ability is aimed at.
type Focus string

// Ability focus values.
const (
	FocusCharacter Focus = "character"
	FocusArea      Focus = "area"
	FocusSelf      Focus = "self"
)

// Access is how an ability reaches its target.
type Access string

// Ability access values. Direct access needs line of sight.
const (
	AccessDirect   Access = "direct"
	AccessIndirect Access = "indirect"
	AccessNone     Access = "none"
)

// Antagonist is the class of character an ability affects.
type Antagonist string

// Antagonist classes.
const (
	Opponent Antagonist = "opponent"
	Ally     Antagonist = "ally"
	Self     Antagonist = "self"
)

// StatKind distinguishes the three stat catalogs.
type StatKind string

// Stat kinds.
const (
	KindAttack  StatKind = "attack"
	KindDefense StatKind = "defense"
	KindDamage  StatKind = "damage"
)

// StatType is one named attack, defense or damage type.
type StatType struct {
	Key  string
	Name string
}

// StatCatalog holds the attack, defense and damage types of a match, in declaration order.
type StatCatalog struct {
	Attack  []StatType
	Defense []StatType
	Damage  []StatType
}

// Has reports whether key is declared under kind.
func (c StatCatalog) Has(kind StatKind, key string) bool {
	for _, st := range c.of(kind) {
		if st.Key == key {
			return true
		}
	}
	return false
}

// Name returns the display name of key under kind, or key itself when undeclared.
func (c StatCatalog) Name(kind StatKind, key string) string {
	for _, st := range c.of(kind) {
		if st.Key == key {
			return st.Name
		}
	}
	return key
}

func (c StatCatalog) of(kind StatKind) []StatType {
	switch kind {
	case KindAttack:
		return c.Attack
	case KindDefense:
		return c.Defense
	case KindDamage:
		return c.Damage
	default:
		return nil
	}
}

// Offense is the payload of an ability that damages opponents.
type Offense struct {
	AttackType  string
	DefenseType string
	DamageType  string
	Damage      int
}

// Heal is the payload of an ability that restores allies. When AttackType is
// empty the heal is applied at full strength without an effectiveness roll.
type Heal struct {
	AttackType  string
	DefenseType string
	Amount      int
}

// SelfEffect shifts one attack or defense score of the acting character.
type SelfEffect struct {
	Kind  StatKind // KindAttack or KindDefense
	Type  string
	Delta int
}

// AbilityID is the stable handle of an ability in a Registry.
type AbilityID int

// Ability is a static ability record shared by every character that holds it.
//
// Invariant: exactly one of Offense, Heal and SelfEffects is set.
type Ability struct {
	ID          AbilityID
	Key         string
	Name        string
	Focus       Focus
	Access      Access
	Antagonist  Antagonist
	Cost        int
	Range       int
	Radius      int
	Offense     *Offense
	Heal        *Heal
	SelfEffects []SelfEffect

	Image      string
	Background string
	Sound      string
}

// Payloads returns how many payloads the ability carries.
func (a *Ability) Payloads() int {
	n := 0
	if a.Offense != nil {
		n++
	}
	if a.Heal != nil {
		n++
	}
	if len(a.SelfEffects) > 0 {
		n++
	}
	return n
}

// CharacterID is the stable handle of a character in a Registry.
type CharacterID int

// Character holds the static and mutable state of one combatant.
//
// Invariant: 0 <= AP() <= MaxAP and 0 <= Vitality() <= MaxVitality.
type Character struct {
	ID          CharacterID
	Name        string
	Team        Team
	Order       int
	Initiative  int
	MaxAP       int
	MaxVitality int
	Abilities   []AbilityID
	Start       hexgrid.Cell

	Portrait string
	Sheet    string

	ap        int
	vitality  int
	cell      hexgrid.Cell
	attack    map[string]int
	defense   map[string]int
	reduction map[string]int
}

// AP returns the current action points.
func (c *Character) AP() int { return c.ap }

// Vitality returns the current vitality.
func (c *Character) Vitality() int { return c.vitality }

// Cell returns the board cell the character stands on.
func (c *Character) Cell() hexgrid.Cell { return c.cell }

// Alive reports whether vitality is above zero.
func (c *Character) Alive() bool { return c.vitality > 0 }

// Incapacitated reports whether the character can no longer play this round.
func (c *Character) Incapacitated() bool { return c.ap == 0 || c.vitality == 0 }

// HasAbility reports whether id is in the character's loadout.
func (c *Character) HasAbility(id AbilityID) bool {
	for _, a := range c.Abilities {
		if a == id {
			return true
		}
	}
	return false
}

// AttackScore returns the score for attack type key, zero when absent.
func (c *Character) AttackScore(key string) int { return c.attack[key] }

// DefenseScore returns the score for defense type key, zero when absent.
func (c *Character) DefenseScore(key string) int { return c.defense[key] }

// Reduction returns the damage reduction percentage for damage type key.
func (c *Character) Reduction(key string) int { return c.reduction[key] }

// HasAttack reports whether the character holds attack type key.
func (c *Character) HasAttack(key string) bool { _, ok := c.attack[key]; return ok }

// HasDefense reports whether the character holds defense type key.
func (c *Character) HasDefense(key string) bool { _, ok := c.defense[key]; return ok }

// HasReduction reports whether the character holds damage type key.
func (c *Character) HasReduction(key string) bool { _, ok := c.reduction[key]; return ok }

// Scores returns a copy of the score map for kind.
func (c *Character) Scores(kind StatKind) map[string]int {
	var src map[string]int
	switch kind {
	case KindAttack:
		src = c.attack
	case KindDefense:
		src = c.defense
	case KindDamage:
		src = c.reduction
	}
	out := make(map[string]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// SpendAP deducts cost action points.
//
// Precondition: 0 <= cost <= AP().
// Postcondition: AP() decreased by cost; returns false and changes nothing otherwise.
func (c *Character) SpendAP(cost int) bool {
	if cost < 0 || cost > c.ap {
		return false
	}
	c.ap -= cost
	return true
}

// DrainAP sets action points to zero.
func (c *Character) DrainAP() { c.ap = 0 }

// RestoreAP refills action points to MaxAP.
func (c *Character) RestoreAP() { c.ap = c.MaxAP }

// ApplyDamage reduces vitality by dmg, flooring at 0.
//
// Precondition: dmg >= 0.
// Postcondition: Vitality() >= 0; returns the resulting vitality.
func (c *Character) ApplyDamage(dmg int) int {
	c.vitality -= dmg
	if c.vitality < 0 {
		c.vitality = 0
	}
	return c.vitality
}

// ApplyHeal raises vitality by amount, capping at MaxVitality.
//
// Precondition: amount >= 0.
// Postcondition: Vitality() <= MaxVitality; returns the resulting vitality.
func (c *Character) ApplyHeal(amount int) int {
	c.vitality += amount
	if c.vitality > c.MaxVitality {
		c.vitality = c.MaxVitality
	}
	return c.vitality
}

// AdjustScore adds delta to the attack or defense score for key, flooring at 0.
//
// Precondition: kind is KindAttack or KindDefense.
// Postcondition: returns the delta actually applied.
func (c *Character) AdjustScore(kind StatKind, key string, delta int) int {
	m := c.attack
	if kind == KindDefense {
		m = c.defense
	}
	before := m[key]
	after := before + delta
	if after < 0 {
		after = 0
	}
	m[key] = after
	return after - before
}

// MoveTo places the character on cell.
func (c *Character) MoveTo(cell hexgrid.Cell) { c.cell = cell }
