package turn_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/dice"
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
	"github.com/cory-johannsen/korodan/internal/game/turn"
	"github.com/cory-johannsen/korodan/internal/testutil"
)

func duel(t *testing.T, walls []hexgrid.Cell) *match {
	return newMatch(t, setup{
		opts:  turn.Options{Mode: turn.ModeFreeDouble},
		walls: walls,
		members: []testutil.Member{
			{Name: "L", Team: roster.Left, Cell: hexgrid.Cell{Col: 10, Row: 10}, Initiative: 20},
			{Name: "R", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 12}},
		},
	})
}

func TestNew_RejectsBadOptions(t *testing.T) {
	grid := hexgrid.NewGrid(hexgrid.DefaultGeometry, nil)
	reg := testutil.NewRoster(t, grid,
		testutil.Member{Name: "L", Team: roster.Left, Cell: hexgrid.Cell{Col: 0, Row: 0}},
		testutil.Member{Name: "R", Team: roster.Right, Cell: hexgrid.Cell{Col: 2, Row: 0}},
	)
	logger := zap.NewNop()
	ledger := combat.NewLedger(combat.ExpireRound)
	picker := dice.NewLoggedPicker(fixedSrc{}, logger)

	_, err := turn.New(reg, grid, nil, ledger, picker, turn.Options{Mode: "chess", MoveCost: 1}, logger)
	assert.True(t, errors.Is(err, turn.ErrUnknownMode))
	_, err = turn.New(reg, grid, nil, ledger, picker, turn.Options{Mode: turn.ModePairs}, logger)
	assert.Error(t, err)
	_, err = turn.New(reg, grid, nil, ledger, picker, turn.Options{Mode: turn.ModeFreeDouble, SecondPlay: "maybe", MoveCost: 1}, logger)
	assert.Error(t, err)

	_, err = turn.ParseMode("team_order")
	assert.NoError(t, err)
	_, err = turn.ParseMode("teams")
	assert.True(t, errors.Is(err, turn.ErrUnknownMode))
	assert.True(t, turn.SecondPlaySkip.Valid())
	assert.False(t, turn.SecondPlay("maybe").Valid())
}

func TestStart_OnlyOnce(t *testing.T) {
	m := duel(t, nil)
	assert.Equal(t, turn.PhaseNotStarted, m.o.CurrentState().Phase)
	require.NoError(t, m.o.Start())
	requireRejected(t, m.o.Start(), turn.ErrWrongPhase)
}

func TestSelection_BeginAndCancel(t *testing.T) {
	m := duel(t, nil)
	require.NoError(t, m.o.Start())
	m.selectChars("L")
	l, r := m.char("L"), m.char("R")

	preview, err := m.o.BeginSelection(l.ID, m.ability(testutil.Punch))
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{r.ID}, preview.Characters)

	s := m.o.CurrentState()
	assert.Equal(t, turn.PhaseSelectingTarget, s.Phase)
	require.NotNil(t, s.Selection)
	assert.Equal(t, m.ability(testutil.Punch), s.Selection.Ability)

	require.NoError(t, m.o.CancelSelection())
	s = m.o.CurrentState()
	assert.Equal(t, turn.PhaseAwaitingPlay, s.Phase)
	assert.Nil(t, s.Selection)
	assert.Equal(t, 20, l.AP())
	assert.Equal(t, 100, r.Vitality())
	requireRejected(t, m.o.CancelSelection(), turn.ErrWrongPhase)

	_, err = m.o.BeginSelection(r.ID, m.ability(testutil.Punch))
	requireRejected(t, err, turn.ErrNotYourTurn)

	_, err = m.o.BeginSelection(l.ID, m.ability(testutil.Blast))
	require.NoError(t, err)
	_, err = m.o.SubmitPlay(turn.UseAbility(l.ID, m.ability(testutil.Blast), targeting.AtCharacter(l.ID)))
	requireRejected(t, err, targeting.ErrWrongAntagonist)
	assert.Equal(t, turn.PhaseSelectingTarget, m.o.CurrentState().Phase, "a rejected commit keeps the selection")

	m.punch("L", "R")
	s = m.o.CurrentState()
	assert.Equal(t, turn.PhaseAwaitingPlay, s.Phase)
	assert.Nil(t, s.Selection)
}

func TestOfferLegalAbilities_IdempotentAndFiltered(t *testing.T) {
	m := duel(t, nil)
	require.NoError(t, m.o.Start())
	l := m.char("L")
	assert.Nil(t, m.o.OfferLegalAbilities(l.ID), "nothing is offered before the turn starts")

	m.selectChars("L")
	first := m.o.OfferLegalAbilities(l.ID)
	second := m.o.OfferLegalAbilities(l.ID)
	assert.Equal(t, first, second)
	assert.Contains(t, first, m.ability(testutil.Punch))
	assert.Contains(t, first, m.ability(testutil.Brace))
	assert.Contains(t, first, m.ability(testutil.Mend), "an ally ability may target its user")
	assert.Nil(t, m.o.OfferLegalAbilities(m.char("R").ID))

	require.True(t, l.SpendAP(16))
	offered := m.o.OfferLegalAbilities(l.ID)
	assert.Contains(t, offered, m.ability(testutil.Punch))
	assert.NotContains(t, offered, m.ability(testutil.Blast), "blast costs 5")
}

func TestMove_CostsAndRejections(t *testing.T) {
	enclosed := hexgrid.Cell{Col: 20, Row: 20}
	walls := append(hexgrid.NewGrid(hexgrid.DefaultGeometry, nil).Neighbors(enclosed), hexgrid.Cell{Col: 12, Row: 12})
	m := duel(t, walls)
	require.NoError(t, m.o.Start())
	m.selectChars("L")
	l := m.char("L")

	for _, tc := range []struct {
		name   string
		to     hexgrid.Cell
		reason error
	}{
		{"own cell", l.Cell(), targeting.ErrInvalidFocusTarget},
		{"occupied", m.char("R").Cell(), targeting.ErrInvalidFocusTarget},
		{"wall", hexgrid.Cell{Col: 12, Row: 12}, targeting.ErrInvalidFocusTarget},
		{"off board", hexgrid.Cell{Col: 60, Row: 10}, targeting.ErrInvalidFocusTarget},
		{"enclosed", enclosed, targeting.ErrBlockedByWall},
		{"too far", hexgrid.Cell{Col: 40, Row: 10}, targeting.ErrInsufficientResources},
	} {
		_, err := m.o.SubmitPlay(turn.MoveTo(l.ID, tc.to))
		requireRejected(t, err, tc.reason)
		assert.Equal(t, 20, l.AP(), tc.name)
	}

	rec, err := m.o.SubmitPlay(turn.MoveTo(l.ID, hexgrid.Cell{Col: 10, Row: 4}))
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Cost)
	assert.Len(t, rec.Path, 3)
	assert.Equal(t, hexgrid.Cell{Col: 10, Row: 10}, rec.From)
	assert.Equal(t, hexgrid.Cell{Col: 10, Row: 4}, l.Cell())
	assert.Equal(t, 17, l.AP())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	m := duel(t, nil)
	var seen []turn.EventKind
	stop := m.o.Subscribe(func(ev turn.Event) { seen = append(seen, ev.Kind) })
	require.NoError(t, m.o.Start())
	assert.Equal(t, []turn.EventKind{turn.EventRoundStarted}, seen)

	stop()
	m.selectChars("L")
	assert.Len(t, seen, 1)
	assert.Equal(t, turn.EventTurnStarted, m.rec.kinds()[1])
}

func TestHandlerMaySubmitPlays(t *testing.T) {
	m := duel(t, nil)
	l := m.char("L")
	m.o.Subscribe(func(ev turn.Event) {
		if ev.Kind == turn.EventTurnStarted && ev.Team == roster.Left {
			_, err := m.o.SubmitPlay(turn.Pass(l.ID))
			assert.NoError(t, err)
		}
	})
	require.NoError(t, m.o.Start())
	m.selectChars("L")
	m.pass("L")
	assert.Equal(t, roster.Right, m.o.CurrentState().ActiveTeam)
	assert.Equal(t, 2, m.rec.count(turn.EventPlayResolved))
}

func TestPropertyRandomMatchesKeepInvariants(t *testing.T) {
	modes := []turn.Mode{turn.ModePairs, turn.ModeTeamOrder, turn.ModeFreeDouble}
	rapid.Check(t, func(rt *rapid.T) {
		m := newMatch(t, setup{
			opts: turn.Options{
				Mode:       rapid.SampledFrom(modes).Draw(rt, "mode"),
				SecondPlay: rapid.SampledFrom([]turn.SecondPlay{turn.SecondPlayReject, turn.SecondPlaySkip}).Draw(rt, "second"),
			},
			coin: rapid.IntRange(0, 1).Draw(rt, "coin"),
			members: []testutil.Member{
				{Name: "L0", Team: roster.Left, Cell: hexgrid.Cell{Col: 10, Row: 10}, Initiative: 10, Vitality: 60},
				{Name: "L1", Team: roster.Left, Cell: hexgrid.Cell{Col: 12, Row: 10}, Initiative: 11},
				{Name: "R0", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 14}, Initiative: 10, Vitality: 60},
				{Name: "R1", Team: roster.Right, Cell: hexgrid.Cell{Col: 12, Row: 14}, Initiative: 9},
			},
		})
		require.NoError(rt, m.o.Start())

		for step := 0; step < 200; step++ {
			s := m.o.CurrentState()
			if s.Phase == turn.PhaseMatchEnded {
				assert.True(rt, m.reg.Defeated(roster.Left) || m.reg.Defeated(roster.Right))
				break
			}
			if s.Phase == turn.PhaseSelectingCharacters {
				offered := m.o.OfferLegalCharacters()
				require.NotEmpty(rt, offered)
				chosen := pickSelection(m.reg, s.Mode, offered, rapid.IntRange(0, 10).Draw(rt, "pick"))
				require.NoError(rt, m.o.SelectCharacters(chosen...))
				continue
			}
			require.True(rt, s.HasExpected, "phase %s", s.Phase)
			actor := s.Expected
			abilities := m.o.OfferLegalAbilities(actor)
			assert.Equal(rt, abilities, m.o.OfferLegalAbilities(actor))

			play := turn.Pass(actor)
			if len(abilities) > 0 && rapid.IntRange(0, 4).Draw(rt, "act") > 0 {
				ability := rapid.SampledFrom(abilities).Draw(rt, "ability")
				preview, err := m.o.BeginSelection(actor, ability)
				require.NoError(rt, err)
				var target targeting.Target
				switch {
				case len(preview.Characters) > 0:
					target = targeting.AtCharacter(rapid.SampledFrom(preview.Characters).Draw(rt, "target"))
				case len(preview.Cells) > 0:
					target = targeting.AtCell(rapid.SampledFrom(preview.Cells).Draw(rt, "cell"))
				}
				play = turn.UseAbility(actor, ability, target)
			}
			_, err := m.o.SubmitPlay(play)
			require.NoError(rt, err)

			for _, c := range m.reg.Characters() {
				assert.GreaterOrEqual(rt, c.AP(), 0)
				assert.LessOrEqual(rt, c.AP(), c.MaxAP)
				assert.GreaterOrEqual(rt, c.Vitality(), 0)
				assert.LessOrEqual(rt, c.Vitality(), c.MaxVitality)
			}
		}
	})
}

// pickSelection chooses a valid turn selection from the offered characters.
func pickSelection(reg *roster.Registry, mode turn.Mode, offered []roster.CharacterID, seed int) []roster.CharacterID {
	if mode == turn.ModeFreeDouble {
		return []roster.CharacterID{offered[seed%len(offered)]}
	}
	byTeam := map[roster.Team][]roster.CharacterID{}
	for _, id := range offered {
		t := reg.Character(id).Team
		byTeam[t] = append(byTeam[t], id)
	}
	var out []roster.CharacterID
	for _, t := range roster.Teams {
		if ids := byTeam[t]; len(ids) > 0 {
			out = append(out, ids[seed%len(ids)])
		}
	}
	return out
}
