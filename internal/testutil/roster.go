package testutil

import (
	"testing"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
)

// Ability keys registered by NewRoster.
const (
	Punch   = "punch"   // character, direct, opponent: cost 3, range 1, 30 physical
	Blast   = "blast"   // character, direct, opponent: cost 5, range 10, 20 energy
	Lob     = "lob"     // character, indirect, opponent: cost 5, range 10, 20 energy
	Barrage = "barrage" // area, direct, opponent: cost 6, range 10, radius 2, 20 energy
	Mortar  = "mortar"  // area, indirect, opponent: cost 6, range 10, radius 2, 20 energy
	Mend    = "mend"    // character, direct, ally: cost 4, range 3, heal 30
	Brace   = "brace"   // self: cost 2, +30 melee and shot defense
)

// Member places one character in a test roster. Zero AP, Vitality and
// Initiative take the defaults 20, 100 and 10.
type Member struct {
	Name       string
	Team       roster.Team
	Cell       hexgrid.Cell
	Initiative int
	AP         int
	Vitality   int
	Abilities  []string
}

// TestStats returns the stat catalog used by NewRoster.
func TestStats() roster.StatCatalog {
	return roster.StatCatalog{
		Attack:  []roster.StatType{{Key: "melee", Name: "Melee"}, {Key: "shot", Name: "Shot"}},
		Defense: []roster.StatType{{Key: "melee", Name: "Melee"}, {Key: "shot", Name: "Shot"}},
		Damage:  []roster.StatType{{Key: "physical", Name: "Physical"}, {Key: "energy", Name: "Energy"}},
	}
}

// TestAbilities returns the abilities registered by NewRoster.
func TestAbilities() []roster.Ability {
	offense := func(atk, dmg string, value int) *roster.Offense {
		return &roster.Offense{AttackType: atk, DefenseType: atk, DamageType: dmg, Damage: value}
	}
	return []roster.Ability{
		{Key: Punch, Focus: roster.FocusCharacter, Access: roster.AccessDirect, Antagonist: roster.Opponent,
			Cost: 3, Range: 1, Offense: offense("melee", "physical", 30)},
		{Key: Blast, Focus: roster.FocusCharacter, Access: roster.AccessDirect, Antagonist: roster.Opponent,
			Cost: 5, Range: 10, Offense: offense("shot", "energy", 20)},
		{Key: Lob, Focus: roster.FocusCharacter, Access: roster.AccessIndirect, Antagonist: roster.Opponent,
			Cost: 5, Range: 10, Offense: offense("shot", "energy", 20)},
		{Key: Barrage, Focus: roster.FocusArea, Access: roster.AccessDirect, Antagonist: roster.Opponent,
			Cost: 6, Range: 10, Radius: 2, Offense: offense("shot", "energy", 20)},
		{Key: Mortar, Focus: roster.FocusArea, Access: roster.AccessIndirect, Antagonist: roster.Opponent,
			Cost: 6, Range: 10, Radius: 2, Offense: offense("shot", "energy", 20)},
		{Key: Mend, Focus: roster.FocusCharacter, Access: roster.AccessDirect, Antagonist: roster.Ally,
			Cost: 4, Range: 3, Heal: &roster.Heal{Amount: 30}},
		{Key: Brace, Focus: roster.FocusSelf, Access: roster.AccessNone, Antagonist: roster.Self,
			Cost: 2, SelfEffects: []roster.SelfEffect{
				{Kind: roster.KindDefense, Type: "melee", Delta: 30},
				{Kind: roster.KindDefense, Type: "shot", Delta: 30},
			}},
	}
}

// NewRoster builds a registry holding members, in order, on a board of geom
// with the given walls. Every character scores 70 melee attack, 50 shot
// attack, 70 in both defenses, and reduces physical damage by 5% and energy by 10%.
//
// Postcondition: the registry passes roster.Validate or the test fails.
func NewRoster(t testing.TB, grid *hexgrid.Grid, members ...Member) *roster.Registry {
	t.Helper()
	reg := roster.NewRegistry(map[roster.Team]roster.TeamInfo{
		roster.Left:  {Name: "Reds", Emblem: "reds.png"},
		roster.Right: {Name: "Blues", Emblem: "blues.png"},
	}, TestStats())
	var all []string
	for _, a := range TestAbilities() {
		if _, err := reg.AddAbility(a); err != nil {
			t.Fatalf("adding ability %s: %v", a.Key, err)
		}
		all = append(all, a.Key)
	}

	orders := make(map[roster.Team]int)
	for _, m := range members {
		spec := roster.CharacterSpec{
			Name:        m.Name,
			Team:        m.Team,
			Order:       orders[m.Team],
			Initiative:  orDefault(m.Initiative, 10),
			MaxAP:       orDefault(m.AP, 20),
			MaxVitality: orDefault(m.Vitality, 100),
			Attack:      map[string]int{"melee": 70, "shot": 50},
			Defense:     map[string]int{"melee": 70, "shot": 70},
			Reduction:   map[string]int{"physical": 5, "energy": 10},
			Abilities:   m.Abilities,
			Start:       m.Cell,
		}
		if len(spec.Abilities) == 0 {
			spec.Abilities = all
		}
		orders[m.Team]++
		if _, err := reg.AddCharacter(spec); err != nil {
			t.Fatalf("adding character %s: %v", m.Name, err)
		}
	}
	if err := roster.Validate(reg, grid); err != nil {
		t.Fatalf("test roster invalid: %v", err)
	}
	return reg
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// MustCharacter returns the character called name or fails the test.
func MustCharacter(t testing.TB, reg *roster.Registry, name string) *roster.Character {
	t.Helper()
	c, ok := reg.CharacterByName(name)
	if !ok {
		t.Fatalf("no character %q", name)
	}
	return c
}

// MustAbility returns the ability with key or fails the test.
func MustAbility(t testing.TB, reg *roster.Registry, key string) *roster.Ability {
	t.Helper()
	a, ok := reg.AbilityByKey(key)
	if !ok {
		t.Fatalf("no ability %q", key)
	}
	return a
}
