package builtin

import (
	"fmt"
	"strings"

	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input/key"
)

// maxFound is how many bindings where-is lists.
const maxFound = 4

func acceptLine(ctx *execctx.Context) handler.Result {
	ctx.Editor.Accept()
	return handler.Success()
}

func acceptAndHold(ctx *execctx.Context) handler.Result {
	ctx.Editor.AcceptAndHold()
	return handler.Success()
}

func sendBreak(ctx *execctx.Context) handler.Result {
	ctx.Editor.SendBreak()
	return handler.Cancelled()
}

func pushLine(ctx *execctx.Context) handler.Result {
	ctx.Editor.PushLine()
	return handler.Success()
}

func clearScreen(ctx *execctx.Context) handler.Result {
	if err := ctx.Display.ClearScreen(); err != nil {
		return handler.Error(err)
	}
	ctx.Display.Invalidate()
	return handler.Success()
}

func redisplay(ctx *execctx.Context) handler.Result {
	ctx.Display.Invalidate()
	return handler.Success()
}

func resetPrompt(ctx *execctx.Context) handler.Result {
	ctx.Editor.ResetPrompt()
	return redisplay(ctx)
}

func beep(ctx *execctx.Context) handler.Result {
	ctx.Display.Feep()
	return handler.Success()
}

func undefinedKey(*execctx.Context) handler.Result {
	return handler.Fail()
}

func recursiveEdit(ctx *execctx.Context) handler.Result {
	ctx.Display.Refresh()
	return handler.FromCode(ctx.Editor.RecursiveEdit())
}

// describeKeyBriefly reads one key sequence and shows what it is bound to.
func describeKeyBriefly(ctx *execctx.Context) handler.Result {
	if ctx.Display.StatusLine() != "" {
		return handler.Fail()
	}
	ctx.Display.Status("Describe key briefly: _")
	ctx.Display.Refresh()
	seq, b, err := ctx.Editor.ReadKeySequence()
	ctx.Display.Status("")
	if len(seq) == 0 {
		if err != nil {
			return handler.Error(err)
		}
		return handler.Fail()
	}
	is := b.Widget
	if b.IsString() {
		is = key.Describe(b.String)
	}
	ctx.Display.Message(key.Describe(seq) + " is " + is)
	return handler.Success()
}

// whereIs reads a widget name and lists the keys bound to it in the
// current keymap.
func whereIs(ctx *execctx.Context) handler.Result {
	name, err := ctx.Editor.ReadCommandName("Where is: ")
	if err != nil || name == "" {
		return handler.Fail()
	}
	var seqs [][]byte
	if km, ok := ctx.Editor.Keymaps().Get(ctx.Editor.KeymapName()); ok {
		seqs = km.Find(name)
	}

	var sb strings.Builder
	sb.WriteString(name)
	switch {
	case len(seqs) == 0:
		sb.WriteString(" is not bound to any key")
	default:
		sb.WriteString(" is on")
		for _, seq := range seqs[:min(len(seqs), maxFound)] {
			sb.WriteByte(' ')
			sb.WriteString(key.Describe(seq))
		}
		if len(seqs) > maxFound {
			sb.WriteString(" et al")
		}
	}
	ctx.Display.Message(sb.String())
	return handler.Success()
}

// executeNamedCmd reads a widget name and runs it.
func executeNamedCmd(ctx *execctx.Context) handler.Result {
	name, err := ctx.Editor.ReadCommandName("execute: ")
	if err != nil {
		return handler.Error(err)
	}
	if name == "" {
		return handler.Fail()
	}
	if code := ctx.Editor.Call(name, nil); code != 0 {
		return handler.Error(fmt.Errorf("%s: status %d", name, code))
	}
	return handler.Success()
}
