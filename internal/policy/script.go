package policy

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
	lua "github.com/yuin/gopher-lua"
)

// Script runs a Lua function decide(obs) that returns an action number.
// obs is a table with player_sum, dealer_card, usable_aces, can_split,
// can_double, probabilities (1-based, buckets 2..ace) and recent.
//
// A Script owns a Lua state and is not safe for concurrent use.
type Script struct {
	name   string
	state  *lua.LState
	decide lua.LValue
	logger *log.Logger
}

// NewScript compiles source and looks up its decide function
func NewScript(name, source string, logger *log.Logger) (*Script, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.fn), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("open lua %s library: %w", lib.name, err)
		}
	}

	if err := L.DoString(source); err != nil {
		L.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}
	decide := L.GetGlobal("decide")
	if decide.Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("script %s does not define decide(obs)", name)
	}

	return &Script{
		name:   name,
		state:  L,
		decide: decide,
		logger: logger.WithPrefix("script"),
	}, nil
}

// LoadScript reads a Lua policy from path
func LoadScript(path string, logger *log.Logger) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return NewScript(path, string(src), logger)
}

func (s *Script) Name() string { return "script:" + s.name }

// Act calls decide. A runtime error or a result outside 0-3 stands.
func (s *Script) Act(obs game.Observation) game.Action {
	a, err := s.call(obs)
	if err != nil {
		s.logger.Warn("script failed, standing", "script", s.name, "error", err)
		return game.Stand
	}
	return a
}

func (s *Script) call(obs game.Observation) (game.Action, error) {
	L := s.state
	if err := L.CallByParam(lua.P{Fn: s.decide, NRet: 1, Protect: true}, s.table(obs)); err != nil {
		return game.Stand, err
	}
	ret := L.Get(-1)
	L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		return game.Stand, fmt.Errorf("decide returned %s, want number", ret.Type())
	}
	a := game.Action(int(n))
	if !a.Valid() {
		return game.Stand, fmt.Errorf("%w: %d", game.ErrUnknownAction, int(n))
	}
	return a, nil
}

func (s *Script) table(obs game.Observation) *lua.LTable {
	L := s.state
	t := L.NewTable()
	t.RawSetString("player_sum", lua.LNumber(obs.PlayerSum))
	t.RawSetString("dealer_card", lua.LNumber(obs.DealerCard))
	t.RawSetString("usable_aces", lua.LNumber(obs.UsableAces))
	t.RawSetString("can_split", lua.LBool(obs.CanSplit))
	t.RawSetString("can_double", lua.LBool(obs.CanDouble))

	probs := L.NewTable()
	for _, p := range obs.Probabilities {
		probs.Append(lua.LNumber(p))
	}
	t.RawSetString("probabilities", probs)

	recent := L.NewTable()
	for _, r := range obs.Recent {
		recent.Append(lua.LNumber(r))
	}
	t.RawSetString("recent", recent)
	return t
}

// Close releases the Lua state
func (s *Script) Close() {
	s.state.Close()
}
