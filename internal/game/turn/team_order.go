package turn

import (
	"github.com/cory-johannsen/korodan/internal/game/roster"
)

// teamOrder fixes one play order for the whole match: the teams interleaved,
// each top to bottom, starting with the team whose topmost character has the
// higher initiative. A turn is one pass over the list; incapacitated
// characters are skipped without a play.
type teamOrder struct {
	order []*roster.Character
	pos   int
}

func (p *teamOrder) mode() Mode { return ModeTeamOrder }

func (p *teamOrder) startRound(b *board) {
	if p.order != nil {
		return
	}
	left, right := b.topToBottom(roster.Left), b.topToBottom(roster.Right)
	if len(left) == 0 || len(right) == 0 {
		p.order = append(left, right...)
		return
	}
	firsts, seconds := left, right
	if b.first("team order first mover", left[0], right[0]) == right[0] {
		firsts, seconds = right, left
	}
	for i := 0; i < len(firsts) || i < len(seconds); i++ {
		if i < len(firsts) {
			p.order = append(p.order, firsts[i])
		}
		if i < len(seconds) {
			p.order = append(p.order, seconds[i])
		}
	}
}

func (p *teamOrder) needsSelection() bool { return false }

func (p *teamOrder) candidates(*board) []*roster.Character { return nil }

func (p *teamOrder) selectTurn(*board, []roster.CharacterID) error {
	return ErrWrongPhase
}

func (p *teamOrder) startTurn(b *board) bool {
	p.pos = 0
	return b.anyEligible(p.order)
}

func (p *teamOrder) next(b *board) (*roster.Character, bool) {
	for p.pos < len(p.order) && !b.eligible(p.order[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.order) {
		return nil, false
	}
	return p.order[p.pos], true
}

func (p *teamOrder) played(*board, *roster.Character) { p.pos++ }

func (p *teamOrder) endTurn(*board) {}

func (p *teamOrder) roundOver(b *board) bool { return !b.anyEligible(p.order) }

func (p *teamOrder) participants() []roster.CharacterID { return ids(p.order) }

func (p *teamOrder) activeTeam(*board) roster.Team { return "" }
