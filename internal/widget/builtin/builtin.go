// Package builtin provides the builtin widgets.
package builtin

import (
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/widget"
)

// Completer runs completion for the completion widgets.
type Completer interface {
	Complete(ctx *execctx.Context, widget string) handler.Result
}

const (
	// argument widgets leave the suffix, the list and the last command alone
	argFlags = widget.KeepSuffix | widget.MenuCompletion | widget.NotCommand

	// display widgets additionally keep the cursor column
	displayFlags = argFlags | widget.LastCol

	compFlags = widget.KeepSuffix | widget.MenuCompletion
)

type entry struct {
	name  string
	flags widget.Flags
	fn    handler.Func
}

func natives() []entry {
	return []entry{
		{"self-insert", 0, selfInsert},
		{"self-insert-unmeta", 0, selfInsertUnmeta},
		{"quoted-insert", 0, quotedInsert},
		{"accept-line", 0, acceptLine},
		{"accept-and-hold", 0, acceptAndHold},
		{"send-break", 0, sendBreak},
		{"push-line", 0, pushLine},
		{"beginning-of-line", 0, beginningOfLine},
		{"end-of-line", 0, endOfLine},
		{"forward-char", 0, forwardChar},
		{"backward-char", 0, backwardChar},
		{"vi-forward-char", 0, viForwardChar},
		{"vi-backward-char", 0, viBackwardChar},
		{"backward-delete-char", widget.KeepSuffix, backwardDeleteChar},
		{"delete-char", 0, deleteChar},
		{"kill-line", 0, killLine},
		{"backward-kill-line", 0, backwardKillLine},
		{"kill-word", 0, killWord},
		{"backward-kill-word", 0, backwardKillWord},
		{"transpose-chars", 0, transposeChars},
		{"undo", 0, undo},
		{"up-history", widget.LineMove | widget.LastCol, upHistory},
		{"down-history", widget.LineMove | widget.LastCol, downHistory},
		{"vi-cmd-mode", 0, viCmdMode},
		{"vi-insert", 0, viInsert},
		{"vi-add-next", 0, viAddNext},
		{"digit-argument", argFlags, digitArgument},
		{"neg-argument", argFlags, negArgument},
		{"universal-argument", argFlags, universalArgument},
		{"argument-base", argFlags, argumentBase},
		{"clear-screen", displayFlags, clearScreen},
		{"redisplay", displayFlags, redisplay},
		{"reset-prompt", displayFlags, resetPrompt},
		{"beep", displayFlags, beep},
		{"undefined-key", 0, undefinedKey},
		{"recursive-edit", 0, recursiveEdit},
		{"describe-key-briefly", displayFlags, describeKeyBriefly},
		{"where-is", displayFlags, whereIs},
		{"execute-named-cmd", widget.NotCommand, executeNamedCmd},
	}
}

// Completions lists the completion widgets.
var Completions = []string{"complete-word", "expand-or-complete", "list-choices", "menu-complete"}

// Register defines every builtin widget in reg. Completion widgets are
// backed by c; without one they are left undefined.
func Register(reg *widget.Registry, c Completer) error {
	for _, e := range natives() {
		w := &widget.Widget{Flags: e.flags, Handler: widget.Native{Fn: e.fn}}
		if err := reg.DefineBuiltin(e.name, w); err != nil {
			return err
		}
	}
	if c == nil {
		return nil
	}
	for _, name := range Completions {
		name := name
		w := &widget.Widget{
			Flags: compFlags,
			Handler: widget.Completion{Fn: func(ctx *execctx.Context) handler.Result {
				return c.Complete(ctx, name)
			}},
		}
		if err := reg.DefineBuiltin(name, w); err != nil {
			return err
		}
	}
	// delete-char-or-list lists choices itself at the end of the line
	w := &widget.Widget{Handler: widget.Native{Fn: func(ctx *execctx.Context) handler.Result {
		if ctx.Buffer.Cursor() != ctx.Buffer.Len() {
			return deleteChar(ctx)
		}
		return c.Complete(ctx, "list-choices")
	}}}
	return reg.DefineBuiltin("delete-char-or-list", w)
}
