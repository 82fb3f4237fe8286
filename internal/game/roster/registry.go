package roster

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
)

// CharacterSpec describes a character before it is placed in a Registry.
type CharacterSpec struct {
	Name        string
	Team        Team
	Order       int
	Initiative  int
	MaxAP       int
	MaxVitality int
	Attack      map[string]int
	Defense     map[string]int
	Reduction   map[string]int
	Abilities   []string // ability keys
	Start       hexgrid.Cell
	Portrait    string
	Sheet       string
}

// Registry owns every ability and character of a match. Handles returned by
// AddAbility and AddCharacter stay valid for the life of the Registry.
type Registry struct {
	teams      map[Team]TeamInfo
	stats      StatCatalog
	abilities  []*Ability
	byKey      map[string]AbilityID
	characters []*Character
}

// NewRegistry creates an empty Registry for the given teams and stat types.
func NewRegistry(teams map[Team]TeamInfo, stats StatCatalog) *Registry {
	t := make(map[Team]TeamInfo, len(teams))
	for k, v := range teams {
		t[k] = v
	}
	return &Registry{teams: t, stats: stats, byKey: make(map[string]AbilityID)}
}

// AddAbility stores a copy of a and returns its handle.
//
// Precondition: a.Key must be unique within the Registry.
// Postcondition: Returns the new handle, or an error when the key is taken.
func (r *Registry) AddAbility(a Ability) (AbilityID, error) {
	if _, dup := r.byKey[a.Key]; dup {
		return 0, fmt.Errorf("ability %q declared twice", a.Key)
	}
	id := AbilityID(len(r.abilities))
	a.ID = id
	r.abilities = append(r.abilities, &a)
	r.byKey[a.Key] = id
	return id, nil
}

// AddCharacter creates a character from spec at full action points and vitality,
// standing on its start cell.
//
// Precondition: every key in spec.Abilities must already be added.
// Postcondition: Returns the new handle, or an error naming the first unknown ability.
func (r *Registry) AddCharacter(spec CharacterSpec) (CharacterID, error) {
	abilities := make([]AbilityID, 0, len(spec.Abilities))
	for _, key := range spec.Abilities {
		id, ok := r.byKey[key]
		if !ok {
			return 0, fmt.Errorf("character %q: unknown ability %q", spec.Name, key)
		}
		abilities = append(abilities, id)
	}
	id := CharacterID(len(r.characters))
	c := &Character{
		ID:          id,
		Name:        spec.Name,
		Team:        spec.Team,
		Order:       spec.Order,
		Initiative:  spec.Initiative,
		MaxAP:       spec.MaxAP,
		MaxVitality: spec.MaxVitality,
		Abilities:   abilities,
		Start:       spec.Start,
		Portrait:    spec.Portrait,
		Sheet:       spec.Sheet,
		attack:      copyScores(spec.Attack),
		defense:     copyScores(spec.Defense),
		reduction:   copyScores(spec.Reduction),
	}
	c.ap = c.MaxAP
	c.vitality = c.MaxVitality
	c.cell = c.Start
	r.characters = append(r.characters, c)
	return id, nil
}

func copyScores(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Team returns the metadata of side t.
func (r *Registry) Team(t Team) (TeamInfo, bool) {
	info, ok := r.teams[t]
	return info, ok
}

// Stats returns the stat catalog.
func (r *Registry) Stats() StatCatalog { return r.stats }

// Ability returns the ability for id, or nil when id is unknown.
func (r *Registry) Ability(id AbilityID) *Ability {
	if id < 0 || int(id) >= len(r.abilities) {
		return nil
	}
	return r.abilities[id]
}

// AbilityByKey returns the ability declared with key.
func (r *Registry) AbilityByKey(key string) (*Ability, bool) {
	id, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return r.abilities[id], true
}

// Abilities returns every ability in declaration order.
func (r *Registry) Abilities() []*Ability {
	return append([]*Ability(nil), r.abilities...)
}

// Character returns the character for id, or nil when id is unknown.
func (r *Registry) Character(id CharacterID) *Character {
	if id < 0 || int(id) >= len(r.characters) {
		return nil
	}
	return r.characters[id]
}

// CharacterByName returns the character called name.
func (r *Registry) CharacterByName(name string) (*Character, bool) {
	for _, c := range r.characters {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Characters returns every character in handle order.
func (r *Registry) Characters() []*Character {
	return append([]*Character(nil), r.characters...)
}

// Members returns the characters of team t ordered by Order.
func (r *Registry) Members(t Team) []*Character {
	var out []*Character
	for _, c := range r.characters {
		if c.Team == t {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Living returns the members of team t with vitality above zero.
func (r *Registry) Living(t Team) []*Character {
	var out []*Character
	for _, c := range r.Members(t) {
		if c.Alive() {
			out = append(out, c)
		}
	}
	return out
}

// Defeated reports whether every member of team t is at zero vitality.
func (r *Registry) Defeated(t Team) bool {
	return len(r.Living(t)) == 0
}

// OccupantAt returns the living character standing on cell.
func (r *Registry) OccupantAt(cell hexgrid.Cell) (*Character, bool) {
	for _, c := range r.characters {
		if c.Alive() && c.cell == cell {
			return c, true
		}
	}
	return nil, false
}
