package scripting_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/korodan/internal/scripting"
)

func newFormula(t testing.TB, src string) (*scripting.LuaFormula, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	f, err := scripting.NewLuaFormula(src, 0, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f, logs
}

func TestLuaFormula_MatchesOffsetDifference(t *testing.T) {
	f, _ := newFormula(t, `function effect_score(a, d) return a - d + 50 end`)
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(0, 500).Draw(rt, "attack")
		d := rapid.IntRange(0, 500).Draw(rt, "defense")
		got, err := f.EffectScore(a, d)
		require.NoError(rt, err)
		assert.Equal(rt, a-d+50, got)
	})
}

func TestLuaFormula_TruncatesAndUsesEngine(t *testing.T) {
	f, logs := newFormula(t, `
		function effect_score(a, d)
			engine.log.info("scoring")
			return engine.clamp((a - d) * 1.5, -10, 120)
		end
	`)
	got, err := f.EffectScore(70, 69)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = f.EffectScore(500, 0)
	require.NoError(t, err)
	assert.Equal(t, 120, got)

	got, err = f.EffectScore(0, 500)
	require.NoError(t, err)
	assert.Equal(t, -10, got)

	assert.Equal(t, 3, logs.FilterMessage("scoring").Len())
}

func TestLuaFormula_Errors(t *testing.T) {
	logger := zap.NewNop()

	_, err := scripting.NewLuaFormula(`function other() end`, 0, logger)
	assert.True(t, errors.Is(err, scripting.ErrNoFormula))

	_, err = scripting.NewLuaFormula(`this is not lua`, 0, logger)
	assert.Error(t, err)

	f, logs := newFormula(t, `function effect_score(a, d) if a > 100 then error("too strong") end return "high" end`)
	_, err = f.EffectScore(150, 0)
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("scripting: effect_score failed").Len())

	_, err = f.EffectScore(10, 0)
	assert.ErrorContains(t, err, "want a number")
}

func TestLuaFormula_BudgetIsPerCall(t *testing.T) {
	core, _ := observer.New(zap.DebugLevel)
	f, err := scripting.NewLuaFormula(`
		function effect_score(a, d)
			local s = 0
			for i = 1, a do s = s + 1 end
			return s - d
		end
	`, 500, zap.New(core))
	require.NoError(t, err)
	defer f.Close()

	for i := 0; i < 50; i++ {
		got, err := f.EffectScore(20, 5)
		require.NoError(t, err)
		assert.Equal(t, 15, got)
	}
	_, err = f.EffectScore(100_000, 0)
	assert.Error(t, err)

	got, err := f.EffectScore(20, 5)
	require.NoError(t, err, "a fresh budget after an exhausted call")
	assert.Equal(t, 15, got)
}

func TestLoadLuaFormula(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "score.lua")
	require.NoError(t, os.WriteFile(path, []byte(`function effect_score(a, d) return a - d end`), 0o644))

	f, err := scripting.LoadLuaFormula(path, 0, zap.NewNop())
	require.NoError(t, err)
	defer f.Close()
	got, err := f.EffectScore(70, 20)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	_, err = scripting.LoadLuaFormula(filepath.Join(dir, "missing.lua"), 0, zap.NewNop())
	assert.Error(t, err)
}
