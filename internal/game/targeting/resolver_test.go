package targeting_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
	"github.com/cory-johannsen/korodan/internal/testutil"
)

type fixture struct {
	reg      *roster.Registry
	resolver *targeting.Resolver
}

func (f fixture) char(t *testing.T, name string) *roster.Character {
	return testutil.MustCharacter(t, f.reg, name)
}

func (f fixture) ability(t *testing.T, key string) roster.AbilityID {
	return testutil.MustAbility(t, f.reg, key).ID
}

func newFixture(t *testing.T, walls []hexgrid.Cell, members ...testutil.Member) fixture {
	grid := hexgrid.NewGrid(hexgrid.DefaultGeometry, walls)
	reg := testutil.NewRoster(t, grid, members...)
	return fixture{reg: reg, resolver: targeting.NewResolver(reg, grid)}
}

// A and D on the left, B adjacent to A and C five cells below, with a wall between A and C.
func lineFixture(t *testing.T) fixture {
	return newFixture(t, []hexgrid.Cell{{Col: 10, Row: 16}},
		testutil.Member{Name: "A", Team: roster.Left, Cell: hexgrid.Cell{Col: 10, Row: 10}},
		testutil.Member{Name: "D", Team: roster.Left, Cell: hexgrid.Cell{Col: 12, Row: 10}},
		testutil.Member{Name: "B", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 12}},
		testutil.Member{Name: "C", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 20}},
	)
}

func requireRejected(t *testing.T, err error, reason error) {
	t.Helper()
	require.Error(t, err)
	rej, ok := targeting.AsRejection(err)
	require.True(t, ok, "expected a *Rejection, got %T", err)
	assert.True(t, errors.Is(err, reason), "expected %v, got %v", reason, rej)
}

func TestResolve_SingleOpponentInRange(t *testing.T) {
	f := lineFixture(t)
	a, b := f.char(t, "A"), f.char(t, "B")

	res, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Punch), targeting.AtCharacter(b.ID))
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{b.ID}, res.Targets())
	assert.Equal(t, b.Cell(), res.Center())
	assert.Equal(t, a.ID, res.Actor())
	assert.Equal(t, 20, a.AP(), "resolving never spends AP")

	res, err = f.resolver.Resolve(a.ID, f.ability(t, testutil.Punch), targeting.AtCell(b.Cell()))
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{b.ID}, res.Targets())
}

func TestResolve_OutOfRange(t *testing.T) {
	f := lineFixture(t)
	_, err := f.resolver.Resolve(f.char(t, "A").ID, f.ability(t, testutil.Punch), targeting.AtCharacter(f.char(t, "C").ID))
	requireRejected(t, err, targeting.ErrOutOfRange)
}

func TestResolve_AntagonistCheckedBeforeRange(t *testing.T) {
	f := lineFixture(t)
	// D is an ally two cells away: both wrong class and out of punch range.
	_, err := f.resolver.Resolve(f.char(t, "A").ID, f.ability(t, testutil.Punch), targeting.AtCharacter(f.char(t, "D").ID))
	requireRejected(t, err, targeting.ErrWrongAntagonist)
}

func TestResolve_InsufficientResources(t *testing.T) {
	f := lineFixture(t)
	a := f.char(t, "A")
	require.True(t, a.SpendAP(18))

	_, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Punch), targeting.AtCharacter(f.char(t, "B").ID))
	requireRejected(t, err, targeting.ErrInsufficientResources)
	assert.Equal(t, 2, a.AP())
}

func TestResolve_DirectBlockedIndirectNot(t *testing.T) {
	f := lineFixture(t)
	a, c := f.char(t, "A"), f.char(t, "C")

	_, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Blast), targeting.AtCharacter(c.ID))
	requireRejected(t, err, targeting.ErrBlockedByWall)

	res, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Lob), targeting.AtCharacter(c.ID))
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{c.ID}, res.Targets())
}

func TestResolve_HealTargets(t *testing.T) {
	f := lineFixture(t)
	a, d := f.char(t, "A"), f.char(t, "D")
	mend := f.ability(t, testutil.Mend)

	res, err := f.resolver.Resolve(a.ID, mend, targeting.AtCharacter(a.ID))
	require.NoError(t, err, "an ally ability may heal its own user")
	assert.Equal(t, []roster.CharacterID{a.ID}, res.Targets())

	res, err = f.resolver.Resolve(a.ID, mend, targeting.AtCharacter(d.ID))
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{d.ID}, res.Targets())

	_, err = f.resolver.Resolve(a.ID, mend, targeting.AtCharacter(f.char(t, "B").ID))
	requireRejected(t, err, targeting.ErrWrongAntagonist)

	d.ApplyDamage(d.MaxVitality)
	_, err = f.resolver.Resolve(a.ID, mend, targeting.AtCharacter(d.ID))
	requireRejected(t, err, targeting.ErrInvalidFocusTarget)
}

func TestResolve_Self(t *testing.T) {
	f := lineFixture(t)
	a := f.char(t, "A")
	brace := f.ability(t, testutil.Brace)

	res, err := f.resolver.Resolve(a.ID, brace, targeting.NoTarget())
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{a.ID}, res.Targets())

	_, err = f.resolver.Resolve(a.ID, brace, targeting.AtCharacter(a.ID))
	require.NoError(t, err)

	_, err = f.resolver.Resolve(a.ID, brace, targeting.AtCharacter(f.char(t, "B").ID))
	requireRejected(t, err, targeting.ErrInvalidFocusTarget)
}

func TestResolve_DeadActor(t *testing.T) {
	f := lineFixture(t)
	a := f.char(t, "A")
	a.ApplyDamage(a.MaxVitality)
	_, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Brace), targeting.NoTarget())
	requireRejected(t, err, targeting.ErrInsufficientResources)
}

func TestResolve_AbilityNotHeld(t *testing.T) {
	f := newFixture(t, nil,
		testutil.Member{Name: "A", Team: roster.Left, Cell: hexgrid.Cell{Col: 10, Row: 10}, Abilities: []string{testutil.Punch}},
		testutil.Member{Name: "B", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 12}},
	)
	_, err := f.resolver.Resolve(f.char(t, "A").ID, f.ability(t, testutil.Blast), targeting.AtCharacter(f.char(t, "B").ID))
	requireRejected(t, err, targeting.ErrInvalidFocusTarget)
}

// C stands behind a wall at (10,16); B is off to the side in clear view.
func areaFixture(t *testing.T) fixture {
	return newFixture(t, []hexgrid.Cell{{Col: 10, Row: 16}},
		testutil.Member{Name: "A", Team: roster.Left, Cell: hexgrid.Cell{Col: 10, Row: 10}},
		testutil.Member{Name: "D", Team: roster.Left, Cell: hexgrid.Cell{Col: 30, Row: 10}},
		testutil.Member{Name: "B", Team: roster.Right, Cell: hexgrid.Cell{Col: 12, Row: 18}},
		testutil.Member{Name: "C", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 18}},
	)
}

func TestResolve_AreaDropsOccludedCandidates(t *testing.T) {
	f := areaFixture(t)
	a, b, c := f.char(t, "A"), f.char(t, "B"), f.char(t, "C")

	res, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Barrage), targeting.AtCell(c.Cell()))
	require.NoError(t, err)
	assert.Equal(t, []roster.CharacterID{b.ID}, res.Targets())
	assert.Equal(t, []roster.CharacterID{c.ID}, res.Dropped())

	res, err = f.resolver.Resolve(a.ID, f.ability(t, testutil.Mortar), targeting.AtCell(c.Cell()))
	require.NoError(t, err)
	assert.ElementsMatch(t, []roster.CharacterID{b.ID, c.ID}, res.Targets())
	assert.Empty(t, res.Dropped())
}

func TestResolve_AreaAllOccluded(t *testing.T) {
	f := areaFixture(t)
	_, err := f.resolver.Resolve(f.char(t, "A").ID, f.ability(t, testutil.Barrage), targeting.AtCell(hexgrid.Cell{Col: 8, Row: 20}))
	requireRejected(t, err, targeting.ErrBlockedByWall)
}

func TestResolve_AreaEmptyAndOutOfRange(t *testing.T) {
	f := areaFixture(t)
	a := f.char(t, "A")
	barrage := f.ability(t, testutil.Barrage)

	_, err := f.resolver.Resolve(a.ID, barrage, targeting.AtCell(hexgrid.Cell{Col: 20, Row: 10}))
	requireRejected(t, err, targeting.ErrInvalidFocusTarget)

	_, err = f.resolver.Resolve(a.ID, barrage, targeting.AtCell(hexgrid.Cell{Col: 10, Row: 40}))
	requireRejected(t, err, targeting.ErrOutOfRange)

	_, err = f.resolver.Resolve(a.ID, barrage, targeting.NoTarget())
	requireRejected(t, err, targeting.ErrInvalidFocusTarget)
}

func TestLegal_Preview(t *testing.T) {
	f := lineFixture(t)
	a, b := f.char(t, "A"), f.char(t, "B")

	p := f.resolver.Legal(a.ID, f.ability(t, testutil.Punch))
	assert.Equal(t, []roster.CharacterID{b.ID}, p.Characters)
	assert.Empty(t, p.Cells)

	p = f.resolver.Legal(a.ID, f.ability(t, testutil.Brace))
	assert.Equal(t, []roster.CharacterID{a.ID}, p.Characters)

	p = f.resolver.Legal(a.ID, f.ability(t, testutil.Mortar))
	assert.NotEmpty(t, p.Cells)
	for _, cell := range p.Cells {
		_, err := f.resolver.Resolve(a.ID, f.ability(t, testutil.Mortar), targeting.AtCell(cell))
		assert.NoError(t, err)
	}
}

func TestPropertyIndirectNeverBlockedByWall(t *testing.T) {
	geom := hexgrid.Geometry{Columns: 15, Rows: 15}
	grid := hexgrid.NewGrid(geom, nil)
	reg := testutil.NewRoster(t, grid,
		testutil.Member{Name: "A", Team: roster.Left, Cell: hexgrid.Cell{Col: 0, Row: 0}},
		testutil.Member{Name: "B", Team: roster.Right, Cell: hexgrid.Cell{Col: 14, Row: 14}},
	)
	a := testutil.MustCharacter(t, reg, "A")
	b := testutil.MustCharacter(t, reg, "B")
	lob := testutil.MustAbility(t, reg, testutil.Lob).ID
	mortar := testutil.MustAbility(t, reg, testutil.Mortar).ID

	cell := rapid.Custom(func(rt *rapid.T) hexgrid.Cell {
		col := rapid.IntRange(0, 14).Draw(rt, "col")
		row := rapid.IntRange(0, 6).Draw(rt, "row")*2 + col%2
		return hexgrid.Cell{Col: col, Row: row}
	})

	rapid.Check(t, func(rt *rapid.T) {
		a.MoveTo(cell.Draw(rt, "a"))
		b.MoveTo(cell.Draw(rt, "b"))
		if a.Cell() == b.Cell() {
			rt.Skip("same cell")
		}
		walls := rapid.SliceOfN(cell, 0, 30).Draw(rt, "walls")
		r := targeting.NewResolver(reg, hexgrid.NewGrid(geom, walls))

		for _, id := range []roster.AbilityID{lob, mortar} {
			_, err := r.Resolve(a.ID, id, targeting.AtCharacter(b.ID))
			assert.False(rt, errors.Is(err, targeting.ErrBlockedByWall))
		}
		assert.Equal(rt, 20, a.AP())
		assert.Equal(rt, 100, b.Vitality())
	})
}
