package lua

import (
	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/nsbus/internal/event"
)

const (
	// ModuleName is the global the pubsub table is installed as.
	ModuleName = "pubsub"

	handleTypeName   = "nsbus.handle"
	instanceTypeName = "nsbus.instance"
)

// module exposes one event instance to Lua.
type module struct {
	rt   *Runtime
	inst *event.Instance
}

// registerTypes installs the handle and instance metatables.
func registerTypes(L *lua.LState, rt *Runtime) {
	hmt := L.NewTypeMetatable(handleTypeName)
	L.SetField(hmt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"path":   handlePath,
		"id":     handleID,
		"active": handleActive,
	}))
	L.SetField(hmt, "__tostring", L.NewFunction(handleString))

	imt := L.NewTypeMetatable(instanceTypeName)
	L.SetField(imt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"subscribe":      instanceMethod(rt, (*module).subscribe),
		"subscribe_once": instanceMethod(rt, (*module).subscribeOnce),
		"publish":        instanceMethod(rt, (*module).publish),
		"unsubscribe":    instanceMethod(rt, (*module).unsubscribe),
		"new_instance":   instanceMethod(rt, (*module).newInstance),
		"paths":          instanceMethod(rt, (*module).paths),
	}))
}

// table returns the module functions bound to m, for the global table.
func (m *module) table(L *lua.LState) *lua.LTable {
	bind := func(fn func(*module, *lua.LState, int) int) lua.LGFunction {
		return func(L *lua.LState) int { return fn(m, L, 0) }
	}
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"subscribe":      bind((*module).subscribe),
		"subscribe_once": bind((*module).subscribeOnce),
		"publish":        bind((*module).publish),
		"unsubscribe":    bind((*module).unsubscribe),
		"new_instance":   bind((*module).newInstance),
		"paths":          bind((*module).paths),
	})
}

// instanceMethod adapts a module function to a method called as inst:fn(...).
func instanceMethod(rt *Runtime, fn func(*module, *lua.LState, int) int) lua.LGFunction {
	return func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		inst, ok := ud.Value.(*event.Instance)
		if !ok {
			L.ArgError(1, "instance expected")
			return 0
		}
		return fn(&module{rt: rt, inst: inst}, L, 1)
	}
}

// subscribe(path|{paths}, fn|{fns}, opts?) -> handle | {handles}
func (m *module) subscribe(L *lua.LState, base int) int {
	paths, pathList := m.pathsArg(L, base+1)
	fns, fnList := functionsArg(L, base+2)
	opts := L.OptTable(base+3, nil)

	if !pathList && !fnList {
		L.Push(m.newHandle(L, m.inst.Subscribe(paths[0], m.callback(fns[0]), m.receiver(opts, fns[0]))))
		return 1
	}

	handles := L.CreateTable(len(paths)*len(fns), 0)
	for _, fn := range fns {
		for _, path := range paths {
			h := m.inst.Subscribe(path, m.callback(fn), m.receiver(opts, fn))
			handles.Append(m.newHandle(L, h))
		}
	}
	L.Push(handles)
	return 1
}

// subscribe_once(path, fn, opts?) -> handle
func (m *module) subscribeOnce(L *lua.LState, base int) int {
	path := m.pathValue(L.Get(base + 1))
	fn := L.CheckFunction(base + 2)
	opts := L.OptTable(base+3, nil)

	L.Push(m.newHandle(L, m.inst.SubscribeOnce(path, m.callback(fn), m.receiver(opts, fn))))
	return 1
}

// publish(path, args?, opts?)
func (m *module) publish(L *lua.LState, base int) int {
	path := m.pathValue(L.Get(base + 1))
	args := argsArg(L, base+2)

	var opts []event.PublishOption
	if t := L.OptTable(base+3, nil); t != nil {
		bridge := m.rt.bridge
		if v, ok := bridge.GetTableBool(t, "recurrent"); ok {
			opts = append(opts, event.Recurrent(v))
		}
		if v, ok := bridge.GetTableInt(t, "depth"); ok {
			opts = append(opts, event.Depth(v))
		}
		if v, ok := bridge.GetTableBool(t, "async"); ok {
			opts = append(opts, event.Async(v))
		}
	}

	m.inst.Publish(path, args, opts...)
	return 0
}

// unsubscribe(handle|{handles})
func (m *module) unsubscribe(L *lua.LState, base int) int {
	switch v := L.Get(base + 1).(type) {
	case *lua.LUserData:
		m.inst.Unsubscribe(toHandle(v))
	case *lua.LTable:
		handles := make([]event.Handle, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			if ud, ok := v.RawGetInt(i).(*lua.LUserData); ok {
				handles = append(handles, toHandle(ud))
			}
		}
		m.inst.UnsubscribeMany(handles)
	default:
		m.inst.Unsubscribe(event.Handle{})
	}
	return 0
}

// new_instance(opts?) -> instance
func (m *module) newInstance(L *lua.LState, base int) int {
	opts := m.rt.instanceOptions()
	if t := L.OptTable(base+1, nil); t != nil {
		bridge := m.rt.bridge
		if v, ok := bridge.GetTableString(t, "separator"); ok {
			opts = append(opts, event.WithSeparator(v))
		}
		if v, ok := bridge.GetTableBool(t, "recurrent"); ok {
			opts = append(opts, event.WithRecurrent(v))
		}
		if v, ok := bridge.GetTableInt(t, "depth"); ok {
			opts = append(opts, event.WithDepth(v))
		}
		if v, ok := bridge.GetTableBool(t, "async"); ok {
			opts = append(opts, event.WithAsync(v))
		}
		if v, ok := bridge.GetTableBool(t, "log"); ok {
			opts = append(opts, event.WithLogging(v))
		}
		if v := t.RawGetString("self"); v != lua.LNil {
			opts = append(opts, event.WithReceiver(v))
		}
	}

	ud := L.NewUserData()
	ud.Value = m.inst.NewInstance(opts...)
	L.SetMetatable(ud, L.GetTypeMetatable(instanceTypeName))
	L.Push(ud)
	return 1
}

// paths() -> {path...}
func (m *module) paths(L *lua.LState, _ int) int {
	L.Push(m.rt.bridge.ToLuaValue(m.inst.Paths()))
	return 1
}

// callback adapts fn to an event callback. Errors raised by fn are logged.
func (m *module) callback(fn *lua.LFunction) event.Callback {
	return func(self any, args ...any) {
		all := make([]any, 0, len(args)+1)
		all = append(all, self)
		all = append(all, args...)
		if err := m.rt.bridge.CallFunc(fn, all...); err != nil {
			m.rt.logger.Error("lua callback failed", "error", err)
		}
	}
}

// receiver resolves the self option, defaulting to the Lua function. The
// instance default receiver applies only when it was set from Lua.
func (m *module) receiver(opts *lua.LTable, fn *lua.LFunction) event.SubscribeOption {
	if opts != nil {
		if v := opts.RawGetString("self"); v != lua.LNil {
			return event.Receiver(v)
		}
	}
	if r := m.inst.Config().Receiver; r != nil {
		return event.Receiver(r)
	}
	return event.Receiver(fn)
}

// pathsArg reads a path or an array of paths. Values that are not strings
// are replaced by a fresh path no publish can reach.
func (m *module) pathsArg(L *lua.LState, n int) ([]string, bool) {
	switch v := L.Get(n).(type) {
	case lua.LString:
		return []string{string(v)}, false
	case *lua.LTable:
		paths := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			paths = append(paths, m.pathValue(v.RawGetInt(i)))
		}
		return paths, true
	default:
		return []string{m.pathValue(v)}, false
	}
}

func (m *module) pathValue(v lua.LValue) string {
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	path := UnroutablePath()
	if m.inst.Config().Log {
		m.rt.logger.Error("lua: namespace path is not a string",
			"type", v.Type().String(),
			"path", path,
		)
	}
	return path
}

// UnroutablePath returns a single-segment path that is unique per call, so
// nothing subscribed or published elsewhere ever reaches it.
func UnroutablePath() string {
	return "unroutable-" + uuid.NewString()
}

// functionsArg reads a function or an array of functions.
func functionsArg(L *lua.LState, n int) ([]*lua.LFunction, bool) {
	if t, ok := L.Get(n).(*lua.LTable); ok {
		fns := make([]*lua.LFunction, 0, t.Len())
		for i := 1; i <= t.Len(); i++ {
			fn, ok := t.RawGetInt(i).(*lua.LFunction)
			if !ok {
				L.ArgError(n, "array of functions expected")
				return nil, true
			}
			fns = append(fns, fn)
		}
		return fns, true
	}
	return []*lua.LFunction{L.CheckFunction(n)}, false
}

// argsArg reads the publish arguments. Primitives are converted to Go
// values; tables, functions and userdata are passed as Lua values so Lua
// subscribers receive the same objects.
func argsArg(L *lua.LState, n int) []any {
	t, ok := L.Get(n).(*lua.LTable)
	if !ok {
		if L.Get(n) != lua.LNil {
			return []any{argValue(L.Get(n))}
		}
		return nil
	}

	args := make([]any, t.Len())
	for i := range args {
		args[i] = argValue(t.RawGetInt(i + 1))
	}
	return args
}

func argValue(v lua.LValue) any {
	switch v.(type) {
	case *lua.LTable, *lua.LFunction, *lua.LUserData:
		return v
	default:
		return ToGo(v)
	}
}

func (m *module) newHandle(L *lua.LState, h event.Handle) lua.LValue {
	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(handleTypeName))
	return ud
}

func toHandle(ud *lua.LUserData) event.Handle {
	h, _ := ud.Value.(event.Handle)
	return h
}

func checkHandle(L *lua.LState) event.Handle {
	ud := L.CheckUserData(1)
	h, ok := ud.Value.(event.Handle)
	if !ok {
		L.ArgError(1, "handle expected")
	}
	return h
}

func handlePath(L *lua.LState) int {
	L.Push(lua.LString(checkHandle(L).Path()))
	return 1
}

func handleID(L *lua.LState) int {
	L.Push(lua.LString(checkHandle(L).ID()))
	return 1
}

func handleActive(L *lua.LState) int {
	L.Push(lua.LBool(checkHandle(L).Active()))
	return 1
}

func handleString(L *lua.LState) int {
	L.Push(lua.LString(checkHandle(L).String()))
	return 1
}
