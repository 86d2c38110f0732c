package builtin

import (
	"github.com/dshills/keyline/internal/buffer"
	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input/keymap"
)

func beginningOfLine(ctx *execctx.Context) handler.Result {
	if ctx.Mult() < 0 {
		ctx.Buffer.SetCursor(ctx.Buffer.Len())
	} else {
		ctx.Buffer.SetCursor(0)
	}
	return handler.Success()
}

func endOfLine(ctx *execctx.Context) handler.Result {
	if ctx.Mult() < 0 {
		ctx.Buffer.SetCursor(0)
	} else {
		ctx.Buffer.SetCursor(ctx.Buffer.Len())
	}
	return handler.Success()
}

// forwardChar stops quietly at the end of the line.
func forwardChar(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	forward := n >= 0
	if !forward {
		n = -n
	}
	to, _ := clusterTarget(ctx.Buffer, n, forward)
	ctx.Buffer.SetCursor(to)
	return handler.Success()
}

func backwardChar(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	forward := n < 0
	if forward {
		n = -n
	}
	to, _ := clusterTarget(ctx.Buffer, n, forward)
	ctx.Buffer.SetCursor(to)
	return handler.Success()
}

// viForwardChar fails if the cursor cannot move. In command mode the
// cursor may not pass the last character.
func viForwardChar(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		ctx.Modifier.Mult = -n
		defer func() { ctx.Modifier.Mult = n }()
		return viBackwardChar(ctx)
	}
	lim := ctx.Buffer.Len()
	if ctx.Editor.KeymapName() == keymap.VICmd {
		lim = lastCluster(ctx.Buffer)
	}
	cs := ctx.Buffer.Cursor()
	if cs >= lim {
		return handler.Fail()
	}
	to, _ := clusterTarget(ctx.Buffer, n, true)
	ctx.Buffer.SetCursor(min(to, lim))
	return handler.Success()
}

// lastCluster returns the start of the last grapheme cluster.
func lastCluster(b *buffer.Buffer) int {
	cs := b.Cursor()
	defer b.SetCursor(cs)
	b.SetCursor(b.Len())
	b.BackwardCluster()
	return b.Cursor()
}

func viBackwardChar(ctx *execctx.Context) handler.Result {
	n := ctx.Mult()
	if n < 0 {
		ctx.Modifier.Mult = -n
		defer func() { ctx.Modifier.Mult = n }()
		return viForwardChar(ctx)
	}
	if ctx.Buffer.Cursor() == 0 {
		return handler.Fail()
	}
	to, _ := clusterTarget(ctx.Buffer, n, false)
	ctx.Buffer.SetCursor(to)
	return handler.Success()
}

func upHistory(ctx *execctx.Context) handler.Result {
	return historyMove(ctx, ctx.Mult())
}

func downHistory(ctx *execctx.Context) handler.Result {
	return historyMove(ctx, -ctx.Mult())
}

// historyMove moves n entries back (negative: forward). The cursor keeps
// the column it had when the sequence of history moves began.
func historyMove(ctx *execctx.Context, n int) handler.Result {
	col := ctx.Editor.LastCol()
	if col < 0 {
		col = ctx.Buffer.Cursor()
	}
	var ok bool
	if n >= 0 {
		ok = ctx.Editor.UpHistory(n)
	} else {
		ok = ctx.Editor.DownHistory(-n)
	}
	if !ok {
		return handler.Fail()
	}
	ctx.Buffer.SetCursor(min(col, ctx.Buffer.Len()))
	ctx.Editor.SetLastCol(col)
	return handler.Success()
}

func viCmdMode(ctx *execctx.Context) handler.Result {
	if err := ctx.Editor.SelectKeymap(keymap.VICmd); err != nil {
		return handler.Error(err)
	}
	ctx.Buffer.BackwardCluster()
	return handler.Success()
}

func viInsert(ctx *execctx.Context) handler.Result {
	if err := ctx.Editor.SelectKeymap(keymap.VIIns); err != nil {
		return handler.Error(err)
	}
	return handler.Success()
}

func viAddNext(ctx *execctx.Context) handler.Result {
	ctx.Buffer.ForwardCluster()
	return viInsert(ctx)
}
