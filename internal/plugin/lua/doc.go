// Package lua runs user-defined widgets written in Lua.
//
// A Runtime owns one sandboxed gopher-lua state. Scripts define global
// functions; binding a user widget to a function name makes the
// dispatcher call it with the widget name prepended to its arguments:
//
//	rt, err := lua.NewRuntime(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//	if err := rt.LoadFile("widgets.lua"); err != nil {
//	    return err
//	}
//
// # The zle table
//
// While a widget runs, the global zle table exposes read-only parameters
// read live from the edit session: BUFFER, LBUFFER, RBUFFER, CURSOR,
// WIDGET, LASTWIDGET, KEYS, NUMERIC, KEYMAP, CONTEXT and HISTNO.
// Assigning to any of them raises an error. Changes go through functions:
//
//	function upcase_line(name)
//	    zle.set_buffer(string.upper(zle.BUFFER), zle.CURSOR)
//	end
//
// zle.call runs another widget. zle.watch(fd, fn) and zle.schedule(secs,
// fn) register callbacks that run between keystrokes; a watch handler
// receives the descriptor and the condition names and fails by returning
// false.
//
// # Sandbox
//
// The io, os and debug libraries are not opened, the file loaders are
// removed and require only loads string, table, math and zle. The env
// capability adds os.getenv, os.time and os.clock.
package lua
