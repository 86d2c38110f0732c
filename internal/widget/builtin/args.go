package builtin

import (
	"strconv"

	"github.com/dshills/keyline/internal/dispatcher/execctx"
	"github.com/dshills/keyline/internal/dispatcher/handler"
	"github.com/dshills/keyline/internal/input"
	"github.com/dshills/keyline/internal/reader"
)

func digitArgument(ctx *execctx.Context) handler.Result {
	return handler.FromBool(ctx.Modifier.Digit(ctx.LastKey()))
}

func negArgument(ctx *execctx.Context) handler.Result {
	return handler.FromBool(ctx.Modifier.Negate())
}

// universalArgument reads an optional '-' and digits; the first other
// byte is pushed back. Without digits the argument is multiplied by four.
// An argument given by the caller is used as the multiplier directly.
func universalArgument(ctx *execctx.Context) handler.Result {
	if len(ctx.Args) > 0 {
		n, err := strconv.Atoi(ctx.Args[0])
		if err != nil {
			return handler.Error(err)
		}
		ctx.Modifier.SetMult(n)
		return handler.Success()
	}

	var (
		digits int
		pref   int
		sign   = 1
	)
	for {
		c, err := ctx.Input.GetByte()
		if c == reader.EOF || err != nil {
			break
		}
		if c == '-' && digits == 0 {
			sign = -1
			digits++
			continue
		}
		d := ctx.Modifier.ParseDigit(byte(c))
		if d < 0 {
			ctx.Input.PushBack([]byte{byte(c)})
			break
		}
		pref = pref*ctx.Modifier.Base + d
		digits++
	}
	if pref == 0 {
		pref = 1
	}
	ctx.Modifier.Universal(sign*pref, digits > 0)
	return handler.Success()
}

// argumentBase sets the base for digit-argument from its argument or the
// current numeric argument.
func argumentBase(ctx *execctx.Context) handler.Result {
	base := ctx.Mult()
	if len(ctx.Args) > 0 {
		n, err := strconv.ParseInt(ctx.Args[0], 0, 0)
		if err != nil {
			return handler.Error(err)
		}
		base = int(n)
	}
	if base < 2 || base > input.MaxBase {
		return handler.Fail()
	}
	ctx.Modifier.SetBase(base)
	return handler.Success()
}
