package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
)

// Definition is the YAML form of a roster file.
type Definition struct {
	Teams      map[Team]yamlTeam `yaml:"teams"`
	Stats      yamlStats         `yaml:"stats"`
	Bands      []BandDef         `yaml:"bands"`
	Abilities  []yamlAbility     `yaml:"abilities"`
	Characters []yamlCharacter   `yaml:"characters"`
}

type yamlTeam struct {
	Name   string `yaml:"name"`
	Emblem string `yaml:"emblem"`
}

type yamlStat struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type yamlStats struct {
	Attack  []yamlStat `yaml:"attack"`
	Defense []yamlStat `yaml:"defense"`
	Damage  []yamlStat `yaml:"damage"`
}

// BandDef is one effectiveness band as written in a roster file. An absent
// Min means the lowest integer and an absent Max the highest.
type BandDef struct {
	Name       string `yaml:"name"`
	Min        *int   `yaml:"min"`
	Max        *int   `yaml:"max"`
	Multiplier int    `yaml:"multiplier"`
}

// Bounds returns the band limits with absent ends filled in.
func (b BandDef) Bounds() (lo, hi int) {
	lo, hi = math.MinInt, math.MaxInt
	if b.Min != nil {
		lo = *b.Min
	}
	if b.Max != nil {
		hi = *b.Max
	}
	return lo, hi
}

type yamlOffense struct {
	Attack  string `yaml:"attack"`
	Defense string `yaml:"defense"`
	Damage  string `yaml:"damage"`
	Value   int    `yaml:"value"`
}

type yamlHeal struct {
	Attack  string `yaml:"attack"`
	Defense string `yaml:"defense"`
	Value   int    `yaml:"value"`
}

type yamlSelfEffect struct {
	Kind  string `yaml:"kind"`
	Type  string `yaml:"type"`
	Delta int    `yaml:"delta"`
}

type yamlAbility struct {
	Key         string           `yaml:"key"`
	Name        string           `yaml:"name"`
	Focus       string           `yaml:"focus"`
	Access      string           `yaml:"access"`
	Antagonist  string           `yaml:"antagonist"`
	Cost        int              `yaml:"cost"`
	Range       int              `yaml:"range"`
	Radius      int              `yaml:"radius"`
	Offense     *yamlOffense     `yaml:"offense"`
	Heal        *yamlHeal        `yaml:"heal"`
	SelfEffects []yamlSelfEffect `yaml:"self_effects"`
	Image       string           `yaml:"image"`
	Background  string           `yaml:"background"`
	Sound       string           `yaml:"sound"`
}

type yamlCharacter struct {
	Name         string         `yaml:"name"`
	Team         string         `yaml:"team"`
	Order        int            `yaml:"order"`
	Initiative   int            `yaml:"initiative"`
	ActionPoints int            `yaml:"action_points"`
	Vitality     int            `yaml:"vitality"`
	Start        hexgrid.Cell   `yaml:"start"`
	Attack       map[string]int `yaml:"attack"`
	Defense      map[string]int `yaml:"defense"`
	Reduction    map[string]int `yaml:"reduction"`
	Abilities    []string       `yaml:"abilities"`
	Portrait     string         `yaml:"portrait"`
	Sheet        string         `yaml:"sheet"`
}

// Decode parses a roster file, rejecting unknown fields.
//
// Precondition: r must yield a YAML document conforming to the roster schema.
// Postcondition: Returns a Definition or a non-nil error.
func Decode(r io.Reader) (*Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing roster YAML: empty document")
		}
		return nil, fmt.Errorf("parsing roster YAML: %w", err)
	}
	return &def, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(data []byte) (*Definition, error) {
	return Decode(bytes.NewReader(data))
}

// Build converts the definition into a Registry and validates it against grid.
//
// Precondition: grid must be non-nil.
// Postcondition: Returns a valid Registry, or an error wrapping ErrInconsistentRoster
// that lists every violation found.
func Build(def *Definition, grid *hexgrid.Grid) (*Registry, error) {
	teams := make(map[Team]TeamInfo, len(def.Teams))
	for t, yt := range def.Teams {
		teams[t] = TeamInfo{Name: yt.Name, Emblem: yt.Emblem}
	}
	reg := NewRegistry(teams, StatCatalog{
		Attack:  convertStats(def.Stats.Attack),
		Defense: convertStats(def.Stats.Defense),
		Damage:  convertStats(def.Stats.Damage),
	})

	var errs []string
	for t := range def.Teams {
		if !t.Valid() {
			errs = append(errs, fmt.Sprintf("unknown team %q", t))
		}
	}
	for _, ya := range def.Abilities {
		if _, err := reg.AddAbility(convertAbility(ya)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for _, yc := range def.Characters {
		if _, err := reg.AddCharacter(convertCharacter(yc)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return nil, violations(errs)
	}
	if err := Validate(reg, grid); err != nil {
		return nil, err
	}
	return reg, nil
}

func convertStats(in []yamlStat) []StatType {
	out := make([]StatType, 0, len(in))
	for _, s := range in {
		name := s.Name
		if name == "" {
			name = s.Key
		}
		out = append(out, StatType{Key: s.Key, Name: name})
	}
	return out
}

func convertAbility(ya yamlAbility) Ability {
	a := Ability{
		Key:        ya.Key,
		Name:       strings.TrimSpace(ya.Name),
		Focus:      Focus(ya.Focus),
		Access:     Access(ya.Access),
		Antagonist: Antagonist(ya.Antagonist),
		Cost:       ya.Cost,
		Range:      ya.Range,
		Radius:     ya.Radius,
		Image:      ya.Image,
		Background: ya.Background,
		Sound:      ya.Sound,
	}
	if a.Name == "" {
		a.Name = a.Key
	}
	if a.Access == "" && a.Focus == FocusSelf {
		a.Access = AccessNone
	}
	if ya.Offense != nil {
		a.Offense = &Offense{
			AttackType:  ya.Offense.Attack,
			DefenseType: ya.Offense.Defense,
			DamageType:  ya.Offense.Damage,
			Damage:      ya.Offense.Value,
		}
	}
	if ya.Heal != nil {
		a.Heal = &Heal{AttackType: ya.Heal.Attack, DefenseType: ya.Heal.Defense, Amount: ya.Heal.Value}
	}
	for _, e := range ya.SelfEffects {
		a.SelfEffects = append(a.SelfEffects, SelfEffect{Kind: StatKind(e.Kind), Type: e.Type, Delta: e.Delta})
	}
	return a
}

func convertCharacter(yc yamlCharacter) CharacterSpec {
	return CharacterSpec{
		Name:        yc.Name,
		Team:        Team(yc.Team),
		Order:       yc.Order,
		Initiative:  yc.Initiative,
		MaxAP:       yc.ActionPoints,
		MaxVitality: yc.Vitality,
		Attack:      yc.Attack,
		Defense:     yc.Defense,
		Reduction:   yc.Reduction,
		Abilities:   yc.Abilities,
		Start:       yc.Start,
		Portrait:    yc.Portrait,
		Sheet:       yc.Sheet,
	}
}
