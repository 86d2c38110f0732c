package builtin

import (
	"strings"

	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/reader"
)

// insertRune inserts r Mult times; a negative count inserts nothing.
func insertRune(ctx *execctx.Context, r rune) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		return handler.Fail()
	}
	ctx.Buffer.Insert(strings.Repeat(string(r), n))
	return handler.Success()
}

func selfInsert(ctx *execctx.Context) handler.Result {
	return insertLastChar(ctx, ctx.Input.LastByte())
}

// selfInsertUnmeta strips the meta bit and inserts a newline for a
// carriage return.
func selfInsertUnmeta(ctx *execctx.Context) handler.Result {
	c := ctx.Input.LastByte()
	if c == reader.EOF {
		return handler.Fail()
	}
	c &= 0x7f
	if c == '\r' {
		c = '\n'
	}
	return insertLastChar(ctx, c)
}

func insertLastChar(ctx *execctx.Context, c int) handler.Result {
	r, err := ctx.Input.GetRestChar(c)
	if err != nil || r == reader.EOF {
		return handler.Fail()
	}
	return insertRune(ctx, r)
}

func quotedInsert(ctx *execctx.Context) handler.Result {
	r, err := ctx.Input.GetFullChar()
	if err != nil || r == reader.EOF {
		return handler.Fail()
	}
	return insertRune(ctx, r)
}

// clusterTarget returns where the cursor would be after n cluster moves,
// and whether all of them were possible.
func clusterTarget(b *buffer.Buffer, n int, forward bool) (int, bool) {
	cs := b.Cursor()
	defer b.SetCursor(cs)
	for ; n > 0; n-- {
		moved := b.BackwardCluster
		if forward {
			moved = b.ForwardCluster
		}
		if !moved() {
			return b.Cursor(), false
		}
	}
	return b.Cursor(), true
}

func backwardDeleteChar(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		return deleteForward(ctx, -n)
	}
	to, _ := clusterTarget(ctx.Buffer, n, false)
	ctx.Buffer.DeleteBackward(ctx.Buffer.Cursor() - to)
	return handler.Success()
}

func deleteChar(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		to, _ := clusterTarget(ctx.Buffer, -n, false)
		ctx.Buffer.DeleteBackward(ctx.Buffer.Cursor() - to)
		return handler.Success()
	}
	return deleteForward(ctx, n)
}

// deleteForward deletes n clusters after the cursor, failing without
// change if there are fewer.
func deleteForward(ctx *execctx.Context, n int) handler.Result {
	to, ok := clusterTarget(ctx.Buffer, n, true)
	if !ok {
		return handler.Fail()
	}
	ctx.Buffer.DeleteForward(to - ctx.Buffer.Cursor())
	return handler.Success()
}

func killLine(ctx *execctx.Context) handler.Result {
	if ctx.Mult() < 0 {
		return backwardKillLine(ctx)
	}
	ctx.Buffer.DeleteForward(ctx.Buffer.Len() - ctx.Buffer.Cursor())
	return handler.Success()
}

func backwardKillLine(ctx *execctx.Context) handler.Result {
	if ctx.Mult() < 0 {
		return killLine(ctx)
	}
	ctx.Buffer.DeleteBackward(ctx.Buffer.Cursor())
	return handler.Success()
}

// wordTarget returns the cursor position n words away.
func wordTarget(b *buffer.Buffer, n int, forward bool) int {
	cs := b.Cursor()
	defer b.SetCursor(cs)
	for ; n > 0; n-- {
		if forward {
			b.SetCursor(b.WordEnd())
		} else {
			b.SetCursor(b.WordStart())
		}
	}
	return b.Cursor()
}

func killWord(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		to := wordTarget(ctx.Buffer, -n, false)
		ctx.Buffer.DeleteBackward(ctx.Buffer.Cursor() - to)
		return handler.Success()
	}
	to := wordTarget(ctx.Buffer, n, true)
	ctx.Buffer.DeleteForward(to - ctx.Buffer.Cursor())
	return handler.Success()
}

func backwardKillWord(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		to := wordTarget(ctx.Buffer, -n, true)
		ctx.Buffer.DeleteForward(to - ctx.Buffer.Cursor())
		return handler.Success()
	}
	to := wordTarget(ctx.Buffer, n, false)
	ctx.Buffer.DeleteBackward(ctx.Buffer.Cursor() - to)
	return handler.Success()
}

func transposeChars(ctx *execctx.Context) handler.Result {
	return handler.FromBool(ctx.Buffer.Transpose())
}

func undo(ctx *execctx.Context) handler.Result {
	return handler.FromBool(ctx.Buffer.Undo())
}
