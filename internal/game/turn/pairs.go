package turn

import (
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
)

// pairs lets the players pick one character per team each turn. The pair
// alternates plays, higher initiative first, until both are incapacitated.
type pairs struct {
	pair []*roster.Character
	cur  int
}

func (p *pairs) mode() Mode { return ModePairs }

func (p *pairs) startRound(*board) { p.pair, p.cur = nil, 0 }

func (p *pairs) needsSelection() bool { return true }

func (p *pairs) candidates(b *board) []*roster.Character {
	var out []*roster.Character
	for _, t := range roster.Teams {
		for _, c := range b.reg.Members(t) {
			if b.eligible(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

func (p *pairs) selectTurn(b *board, chosen []roster.CharacterID) error {
	want := 0
	for _, t := range roster.Teams {
		if b.anyEligible(b.reg.Members(t)) {
			want++
		}
	}
	if len(chosen) != want {
		return targeting.Reject(ErrBadSelection, "choose one character from each team with action points left (%d)", want)
	}
	seen := make(map[roster.Team]bool, 2)
	pair := make([]*roster.Character, 0, 2)
	for _, id := range chosen {
		c := b.reg.Character(id)
		if c == nil {
			return targeting.Reject(ErrBadSelection, "unknown character %d", id)
		}
		if !b.eligible(c) {
			return targeting.Reject(targeting.ErrCharacterIncapacitated, "%s cannot play this round", c.Name)
		}
		if seen[c.Team] {
			return targeting.Reject(ErrBadSelection, "two characters chosen from team %s", c.Team)
		}
		seen[c.Team] = true
		pair = append(pair, c)
	}
	if len(pair) == 2 && b.first("pairs first mover", pair[0], pair[1]) == pair[1] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	p.pair, p.cur = pair, 0
	return nil
}

func (p *pairs) startTurn(*board) bool { return false }

func (p *pairs) next(b *board) (*roster.Character, bool) {
	for i := range p.pair {
		k := (p.cur + i) % len(p.pair)
		if b.eligible(p.pair[k]) {
			p.cur = k
			return p.pair[k], true
		}
	}
	return nil, false
}

func (p *pairs) played(_ *board, c *roster.Character) {
	if len(p.pair) > 0 {
		p.cur = (p.cur + 1) % len(p.pair)
	}
}

func (p *pairs) endTurn(*board) { p.pair, p.cur = nil, 0 }

func (p *pairs) roundOver(b *board) bool { return len(p.candidates(b)) == 0 }

func (p *pairs) participants() []roster.CharacterID { return ids(p.pair) }

func (p *pairs) activeTeam(*board) roster.Team { return "" }
