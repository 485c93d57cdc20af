// Package lua binds event instances to Lua scripts.
//
// A Runtime owns one gopher-lua state, one event Loop and one event Instance.
// Scripts see the instance through the global pubsub table:
//
//	local h = pubsub.subscribe("buffer/*/saved", function(self, path)
//	    print("saved", path)
//	end)
//
//	pubsub.publish("buffer/main/saved", {"main.go"}, {recurrent = true})
//	pubsub.unsubscribe(h)
//
//	local other = pubsub.new_instance({separator = ".", recurrent = true})
//	other:subscribe("a.b", function() end)
//
// Callbacks receive their receiver first: the self option passed at
// subscription time, or the Lua function itself. Deferred callbacks run on
// the Runtime's Loop, so every Lua call happens on the goroutine that drives
// the Runtime.
//
// # Bridge
//
// The Bridge converts values in both directions:
//
//	bridge := lua.NewBridge(L)
//	lv := bridge.ToLuaValue(map[string]any{"name": "test", "count": 42})
//	v := lua.ToGo(lv)
package lua
