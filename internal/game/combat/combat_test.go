package combat_test

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
	"github.com/cory-johannsen/korodan/internal/testutil"
)

func defaultBands(t testing.TB) *combat.BandTable {
	t.Helper()
	bt, err := combat.NewBandTable([]combat.Band{
		{Name: "Fallo", Min: math.MinInt, Max: 9, Multiplier: 0},
		{Name: "Roce", Min: 10, Max: 49, Multiplier: 50},
		{Name: "Impacto", Min: 50, Max: 89, Multiplier: 100},
		{Name: "Impacto crítico", Min: 90, Max: math.MaxInt, Multiplier: 150},
	})
	require.NoError(t, err)
	return bt
}

type failingFormula struct{}

func (failingFormula) EffectScore(int, int) (int, error) { return 0, errors.New("boom") }

type env struct {
	reg      *roster.Registry
	targets  *targeting.Resolver
	combat   *combat.Resolver
	ledger   *combat.Ledger
	logs     *observer.ObservedLogs
	a, b, c  *roster.Character
	d        *roster.Character
	abilityF func(key string) roster.AbilityID
}

func newEnv(t *testing.T, formula combat.Formula) env {
	t.Helper()
	grid := hexgrid.NewGrid(hexgrid.DefaultGeometry, nil)
	reg := testutil.NewRoster(t, grid,
		testutil.Member{Name: "A", Team: roster.Left, Cell: hexgrid.Cell{Col: 10, Row: 10}},
		testutil.Member{Name: "D", Team: roster.Left, Cell: hexgrid.Cell{Col: 12, Row: 10}},
		testutil.Member{Name: "B", Team: roster.Right, Cell: hexgrid.Cell{Col: 10, Row: 12}},
		testutil.Member{Name: "C", Team: roster.Right, Cell: hexgrid.Cell{Col: 11, Row: 13}},
	)
	core, logs := observer.New(zap.DebugLevel)
	ledger := combat.NewLedger(combat.ExpireRound)
	return env{
		reg:     reg,
		targets: targeting.NewResolver(reg, grid),
		combat:  combat.NewResolver(reg, defaultBands(t), formula, ledger, zap.New(core)),
		ledger:  ledger,
		logs:    logs,
		a:       testutil.MustCharacter(t, reg, "A"),
		b:       testutil.MustCharacter(t, reg, "B"),
		c:       testutil.MustCharacter(t, reg, "C"),
		d:       testutil.MustCharacter(t, reg, "D"),
		abilityF: func(key string) roster.AbilityID {
			return testutil.MustAbility(t, reg, key).ID
		},
	}
}

func (e env) resolve(t *testing.T, actor *roster.Character, key string, target targeting.Target) targeting.Resolution {
	t.Helper()
	res, err := e.targets.Resolve(actor.ID, e.abilityF(key), target)
	require.NoError(t, err)
	return res
}

func TestApply_MeleeScenario(t *testing.T) {
	e := newEnv(t, combat.OffsetFormula{Offset: 50})
	res := e.resolve(t, e.a, testutil.Punch, targeting.AtCharacter(e.b.ID))

	out, err := e.combat.Apply(res)
	require.NoError(t, err)
	require.Len(t, out, 1)
	o := out[0]
	assert.Equal(t, combat.KindDamage, o.Kind)
	assert.Equal(t, "Impacto", o.Band)
	assert.Equal(t, 50, o.Score)
	assert.Equal(t, 100, o.Multiplier)
	assert.Equal(t, 28, o.Magnitude, "30 at 100 percent less 5 percent is 28.5, floored")
	assert.Equal(t, 72, o.Vitality)
	assert.False(t, o.Defeated)
	assert.Equal(t, 72, e.b.Vitality())
	assert.Equal(t, 17, e.a.AP())
	assert.NotEmpty(t, e.logs.FilterMessage("play applied").All())
}

func TestApply_AreaSpendsOnce(t *testing.T) {
	e := newEnv(t, combat.OffsetFormula{Offset: 50})
	res := e.resolve(t, e.a, testutil.Barrage, targeting.AtCell(e.b.Cell()))
	require.Len(t, res.Targets(), 2)

	out, err := e.combat.Apply(res)
	require.NoError(t, err)
	require.Len(t, out, 2)
	for _, o := range out {
		// shot 50 against shot defense 70 scores 30: Roce, 50%, then 10% energy reduction.
		assert.Equal(t, "Roce", o.Band)
		assert.Equal(t, 9, o.Magnitude)
		assert.Equal(t, 91, o.Vitality)
	}
	assert.Equal(t, 14, e.a.AP())
}

func TestApply_DefeatFlag(t *testing.T) {
	e := newEnv(t, combat.OffsetFormula{Offset: 50})
	e.b.ApplyDamage(80)
	out, err := e.combat.Apply(e.resolve(t, e.a, testutil.Punch, targeting.AtCharacter(e.b.ID)))
	require.NoError(t, err)
	assert.True(t, out[0].Defeated)
	assert.Equal(t, 0, out[0].Vitality)
	assert.False(t, e.b.Alive())
}

func TestApply_HealCapsAtMax(t *testing.T) {
	e := newEnv(t, combat.OffsetFormula{Offset: 50})
	e.d.ApplyDamage(50)

	out, err := e.combat.Apply(e.resolve(t, e.a, testutil.Mend, targeting.AtCharacter(e.d.ID)))
	require.NoError(t, err)
	assert.Equal(t, combat.KindHeal, out[0].Kind)
	assert.Equal(t, 30, out[0].Magnitude)
	assert.Equal(t, 80, e.d.Vitality())

	out, err = e.combat.Apply(e.resolve(t, e.a, testutil.Mend, targeting.AtCharacter(e.d.ID)))
	require.NoError(t, err)
	assert.Equal(t, 20, out[0].Magnitude)
	assert.Equal(t, 100, e.d.Vitality())
	assert.Equal(t, 12, e.a.AP())
}

func TestApply_SelfEffectsAndExpiry(t *testing.T) {
	e := newEnv(t, combat.OffsetFormula{Offset: 50})
	out, err := e.combat.Apply(e.resolve(t, e.a, testutil.Brace, targeting.NoTarget()))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, combat.KindSelf, out[0].Kind)
	assert.Equal(t, e.a.ID, out[0].Target)
	assert.Len(t, out[0].Effects, 2)
	assert.Equal(t, 100, e.a.DefenseScore("melee"))
	assert.Equal(t, 100, e.a.DefenseScore("shot"))
	assert.Equal(t, 18, e.a.AP())
	assert.Len(t, e.ledger.Active(), 2)

	assert.Nil(t, e.ledger.Expire(e.reg, combat.ExpireTurn), "round buffs outlive a turn")
	assert.Equal(t, 100, e.a.DefenseScore("melee"))

	assert.Len(t, e.ledger.Expire(e.reg, combat.ExpireRound), 2)
	assert.Equal(t, 70, e.a.DefenseScore("melee"))
	assert.Equal(t, 70, e.a.DefenseScore("shot"))
	assert.Empty(t, e.ledger.Active())
}

func TestApply_FormulaErrorChangesNothing(t *testing.T) {
	e := newEnv(t, failingFormula{})
	res := e.resolve(t, e.a, testutil.Barrage, targeting.AtCell(e.b.Cell()))

	_, err := e.combat.Apply(res)
	require.Error(t, err)
	assert.Equal(t, 20, e.a.AP())
	assert.Equal(t, 100, e.b.Vitality())
	assert.Equal(t, 100, e.c.Vitality())
}

func TestApply_StaleResolution(t *testing.T) {
	e := newEnv(t, combat.OffsetFormula{Offset: 50})
	res := e.resolve(t, e.a, testutil.Punch, targeting.AtCharacter(e.b.ID))
	e.a.DrainAP()
	_, err := e.combat.Apply(res)
	assert.Error(t, err)
	assert.Equal(t, 100, e.b.Vitality())
}

func TestNewBandTable_Violations(t *testing.T) {
	_, err := combat.NewBandTable(nil)
	assert.True(t, errors.Is(err, combat.ErrInvalidBandTable))

	_, err = combat.NewBandTable([]combat.Band{
		{Name: "low", Min: 0, Max: 10, Multiplier: 0},
		{Name: "mid", Min: 12, Max: 20, Multiplier: -1},
		{Name: "", Min: 21, Max: 100, Multiplier: 100},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, combat.ErrInvalidBandTable))
	for _, want := range []string{
		"first band must start at the minimum integer",
		`band "mid": must start right after "low" ends`,
		"multiplier must be >= 0",
		"name must not be empty",
		"last band must end at the maximum integer",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestBandTable_Lookup(t *testing.T) {
	bt := defaultBands(t)
	assert.Equal(t, "Fallo", bt.Lookup(math.MinInt).Name)
	assert.Equal(t, "Fallo", bt.Lookup(9).Name)
	assert.Equal(t, "Roce", bt.Lookup(10).Name)
	assert.Equal(t, "Impacto", bt.Lookup(89).Name)
	assert.Equal(t, "Impacto crítico", bt.Lookup(90).Name)
	assert.Equal(t, "Impacto crítico", bt.Lookup(math.MaxInt).Name)
}

func TestPropertyBandsPartitionTheIntegers(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cuts := rapid.SliceOfNDistinct(rapid.IntRange(-1000, 1000), 0, 8, rapid.ID[int]).Draw(rt, "cuts")
		sort.Ints(cuts)
		var bands []combat.Band
		lo := math.MinInt
		for i, c := range cuts {
			bands = append(bands, combat.Band{Name: string(rune('a' + i)), Min: lo, Max: c, Multiplier: i * 10})
			lo = c + 1
		}
		bands = append(bands, combat.Band{Name: "top", Min: lo, Max: math.MaxInt, Multiplier: 200})

		bt, err := combat.NewBandTable(bands)
		require.NoError(rt, err)

		score := rapid.Int().Draw(rt, "score")
		matches := 0
		for _, b := range bt.Bands() {
			if b.Contains(score) {
				matches++
			}
		}
		assert.Equal(rt, 1, matches)
		assert.True(rt, bt.Lookup(score).Contains(score))
	})
}

func TestPropertyVitalityAndAPStayInRange(t *testing.T) {
	keys := []string{testutil.Punch, testutil.Barrage, testutil.Mortar, testutil.Mend, testutil.Brace}
	rapid.Check(t, func(rt *rapid.T) {
		e := newEnv(t, combat.OffsetFormula{Offset: rapid.IntRange(-100, 200).Draw(rt, "offset")})
		actors := []*roster.Character{e.a, e.b, e.c, e.d}
		for i := 0; i < 20; i++ {
			actor := rapid.SampledFrom(actors).Draw(rt, "actor")
			key := rapid.SampledFrom(keys).Draw(rt, "ability")
			victim := rapid.SampledFrom(actors).Draw(rt, "target")
			res, err := e.targets.Resolve(actor.ID, e.abilityF(key), targeting.AtCharacter(victim.ID))
			if err != nil {
				continue
			}
			_, err = e.combat.Apply(res)
			require.NoError(rt, err)
			for _, c := range actors {
				assert.GreaterOrEqual(rt, c.Vitality(), 0)
				assert.LessOrEqual(rt, c.Vitality(), c.MaxVitality)
				assert.GreaterOrEqual(rt, c.AP(), 0)
				assert.LessOrEqual(rt, c.AP(), c.MaxAP)
			}
		}
	})
}
