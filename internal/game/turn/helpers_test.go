package turn_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/korodan/internal/game/combat"
	"github.com/cory-johannsen/korodan/internal/game/dice"
	"github.com/cory-johannsen/korodan/internal/game/hexgrid"
	"github.com/cory-johannsen/korodan/internal/game/roster"
	"github.com/cory-johannsen/korodan/internal/game/targeting"
	"github.com/cory-johannsen/korodan/internal/game/turn"
	"github.com/cory-johannsen/korodan/internal/testutil"
)

// fixedSrc always returns val, clamped into range.
type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

type recorder struct {
	mu     sync.Mutex
	events []turn.Event
}

func (r *recorder) handle(ev turn.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []turn.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]turn.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) count(kind turn.EventKind) int {
	n := 0
	for _, k := range r.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type match struct {
	o      *turn.Orchestrator
	reg    *roster.Registry
	ledger *combat.Ledger
	rec    *recorder
	t      *testing.T
}

type setup struct {
	opts    turn.Options
	expiry  combat.Expiry
	walls   []hexgrid.Cell
	members []testutil.Member
	coin    int
}

func newMatch(t *testing.T, s setup) *match {
	t.Helper()
	grid := hexgrid.NewGrid(hexgrid.DefaultGeometry, s.walls)
	reg := testutil.NewRoster(t, grid, s.members...)
	bands, err := combat.NewBandTable([]combat.Band{
		{Name: "Fallo", Min: math.MinInt, Max: 9, Multiplier: 0},
		{Name: "Roce", Min: 10, Max: 49, Multiplier: 50},
		{Name: "Impacto", Min: 50, Max: 89, Multiplier: 100},
		{Name: "Impacto crítico", Min: 90, Max: math.MaxInt, Multiplier: 150},
	})
	require.NoError(t, err)
	if s.expiry == "" {
		s.expiry = combat.ExpireRound
	}
	if s.opts.MoveCost == 0 {
		s.opts.MoveCost = 1
	}
	if s.opts.SecondPlay == "" {
		s.opts.SecondPlay = turn.SecondPlayReject
	}
	logger := zap.NewNop()
	ledger := combat.NewLedger(s.expiry)
	resolver := combat.NewResolver(reg, bands, combat.OffsetFormula{Offset: 50}, ledger, logger)
	picker := dice.NewLoggedPicker(fixedSrc{val: s.coin}, logger)
	o, err := turn.New(reg, grid, resolver, ledger, picker, s.opts, logger)
	require.NoError(t, err)
	rec := &recorder{}
	o.Subscribe(rec.handle)
	return &match{o: o, reg: reg, ledger: ledger, rec: rec, t: t}
}

func (m *match) char(name string) *roster.Character {
	return testutil.MustCharacter(m.t, m.reg, name)
}

func (m *match) ability(key string) roster.AbilityID {
	return testutil.MustAbility(m.t, m.reg, key).ID
}

func (m *match) expected() string {
	m.t.Helper()
	s := m.o.CurrentState()
	require.True(m.t, s.HasExpected, "no character expected in phase %s", s.Phase)
	return m.reg.Character(s.Expected).Name
}

func (m *match) selectChars(names ...string) {
	m.t.Helper()
	var chosen []roster.CharacterID
	for _, n := range names {
		chosen = append(chosen, m.char(n).ID)
	}
	require.NoError(m.t, m.o.SelectCharacters(chosen...))
}

func (m *match) punch(actor, victim string) turn.PlayRecord {
	m.t.Helper()
	rec, err := m.o.SubmitPlay(turn.UseAbility(m.char(actor).ID, m.ability(testutil.Punch), targeting.AtCharacter(m.char(victim).ID)))
	require.NoError(m.t, err)
	return rec
}

func (m *match) pass(actor string) {
	m.t.Helper()
	_, err := m.o.SubmitPlay(turn.Pass(m.char(actor).ID))
	require.NoError(m.t, err)
}

func (m *match) move(actor string, to hexgrid.Cell) {
	m.t.Helper()
	_, err := m.o.SubmitPlay(turn.MoveTo(m.char(actor).ID, to))
	require.NoError(m.t, err)
}

func requireRejected(t *testing.T, err error, reason error) {
	t.Helper()
	require.Error(t, err)
	_, ok := targeting.AsRejection(err)
	assert.True(t, ok, "expected a rejection, got %T", err)
	assert.True(t, errors.Is(err, reason), "expected %v, got %v", reason, err)
}

func namesOf(reg *roster.Registry, ids []roster.CharacterID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = reg.Character(id).Name
	}
	return out
}
