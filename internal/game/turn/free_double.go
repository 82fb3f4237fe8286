package turn

import (
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
)

// freeDouble alternates teams. The active team picks one character, which
// plays exactly twice. The round ends when the team about to choose has
// nobody left who can play.
type freeDouble struct {
	second SecondPlay
	team   roster.Team
	chosen *roster.Character
	plays  int
}

func (p *freeDouble) mode() Mode { return ModeFreeDouble }

func (p *freeDouble) startRound(b *board) {
	if p.team != "" {
		return
	}
	left, right := b.reg.Members(roster.Left), b.reg.Members(roster.Right)
	switch {
	case len(left) == 0:
		p.team = roster.Right
	case len(right) == 0:
		p.team = roster.Left
	default:
		p.team = b.first("free double first team", left[0], right[0]).Team
	}
}

func (p *freeDouble) needsSelection() bool { return true }

func (p *freeDouble) candidates(b *board) []*roster.Character {
	var out []*roster.Character
	for _, c := range b.reg.Members(p.team) {
		if b.eligible(c) {
			out = append(out, c)
		}
	}
	return out
}

func (p *freeDouble) selectTurn(b *board, chosen []roster.CharacterID) error {
	if len(chosen) != 1 {
		return targeting.Reject(ErrBadSelection, "choose exactly one character of team %s", p.team)
	}
	c := b.reg.Character(chosen[0])
	if c == nil {
		return targeting.Reject(ErrBadSelection, "unknown character %d", chosen[0])
	}
	if c.Team != p.team {
		return targeting.Reject(ErrBadSelection, "%s is not on team %s", c.Name, p.team)
	}
	if !b.eligible(c) {
		return targeting.Reject(targeting.ErrCharacterIncapacitated, "%s cannot play this round", c.Name)
	}
	p.chosen, p.plays = c, 0
	return nil
}

func (p *freeDouble) startTurn(*board) bool { return false }

func (p *freeDouble) next(b *board) (*roster.Character, bool) {
	if p.chosen == nil || p.plays >= 2 || !p.chosen.Alive() {
		return nil, false
	}
	if p.plays == 1 && p.second == SecondPlaySkip && !b.canAct(p.chosen) {
		return nil, false
	}
	return p.chosen, true
}

func (p *freeDouble) played(*board, *roster.Character) { p.plays++ }

func (p *freeDouble) endTurn(*board) {
	p.team = p.team.Opponent()
	p.chosen, p.plays = nil, 0
}

func (p *freeDouble) roundOver(b *board) bool { return len(p.candidates(b)) == 0 }

func (p *freeDouble) participants() []roster.CharacterID {
	if p.chosen == nil {
		return nil
	}
	return []roster.CharacterID{p.chosen.ID}
}

func (p *freeDouble) activeTeam(*board) roster.Team { return p.team }
