package scripting

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// FormulaFunction is the global a formula script must define:
//
//	function effect_score(attack, defense) return attack - defense + 50 end
const FormulaFunction = "effect_score"

// ErrNoFormula is returned when a script does not define FormulaFunction.
var ErrNoFormula = errors.New("script does not define " + FormulaFunction)

// LuaFormula computes effect scores with a Lua function. Calls are
// serialized; each call gets a fresh instruction budget.
type LuaFormula struct {
	mu     sync.Mutex
	L      *lua.LState
	fn     lua.LValue
	limit  int
	logger *zap.Logger
}

// NewLuaFormula loads src, which must define effect_score(attack, defense).
//
// Precondition: logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a ready formula or an error; the caller must Close it.
func NewLuaFormula(src string, instLimit int, logger *zap.Logger) (*LuaFormula, error) {
	L := NewSandboxedState(instLimit)
	RegisterModules(L, logger)
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("scripting: loading formula: %w", err)
	}
	fn := L.GetGlobal(FormulaFunction)
	if fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoFormula
	}
	return &LuaFormula{L: L, fn: fn, limit: instLimit, logger: logger}, nil
}

// LoadLuaFormula reads a formula script from path.
//
// Precondition: path must be a readable file.
func LoadLuaFormula(path string, instLimit int, logger *zap.Logger) (*LuaFormula, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading formula %q: %w", path, err)
	}
	f, err := NewLuaFormula(string(src), instLimit, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// EffectScore calls effect_score(attack, defense) and truncates the result
// toward zero.
//
// Postcondition: Returns an error on a Lua runtime error, an exhausted
// instruction budget, or a non-numeric or non-finite result.
func (f *LuaFormula) EffectScore(attack, defense int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ResetLimit(f.L, f.limit)
	err := f.L.CallByParam(lua.P{Fn: f.fn, NRet: 1, Protect: true}, lua.LNumber(attack), lua.LNumber(defense))
	if err != nil {
		f.logger.Warn("scripting: effect_score failed",
			zap.Int("attack", attack),
			zap.Int("defense", defense),
			zap.Error(err),
		)
		return 0, fmt.Errorf("scripting: %s: %w", FormulaFunction, err)
	}
	ret := f.L.Get(-1)
	f.L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("scripting: %s returned %s, want a number", FormulaFunction, ret.Type())
	}
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("scripting: %s returned %v, out of range", FormulaFunction, v)
	}
	return int(v), nil
}

// Close releases the Lua state.
func (f *LuaFormula) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.L.Close()
}
