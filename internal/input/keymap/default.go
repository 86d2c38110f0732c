package keymap

import "github.com/dshills/keyline/internal/input/key"

// Standard keymap names.
const (
	Emacs = "emacs"
	VIIns = "viins"
	VICmd = "vicmd"
	Main  = "main"
)

// LoadDefaults registers the emacs, viins and vicmd keymaps and links
// main to the one named by mainName.
func LoadDefaults(r *Registry, mainName string) error {
	r.Register(DefaultEmacsKeymap())
	r.Register(DefaultVIInsKeymap())
	r.Register(DefaultVICmdKeymap())
	for _, name := range []string{Emacs, VIIns, VICmd} {
		r.Protect(name)
	}
	r.Protect(Main)
	if mainName == "" {
		mainName = Emacs
	}
	return r.Link(Main, mainName)
}

func bindAll(km *Keymap, table [][2]string) *Keymap {
	for _, b := range table {
		if err := km.Bind(key.MustParse(b[0]), b[1]); err != nil {
			panic(err)
		}
	}
	return km
}

func bindSelfInsert(km *Keymap) {
	for c := 0x20; c < 0x7f; c++ {
		_ = km.Bind([]byte{byte(c)}, "self-insert")
	}
	for c := 0x80; c <= 0xff; c++ {
		_ = km.Bind([]byte{byte(c)}, "self-insert")
	}
}

// DefaultEmacsKeymap returns the default emacs bindings.
func DefaultEmacsKeymap() *Keymap {
	km := New(Emacs)
	bindSelfInsert(km)
	bindAll(km, [][2]string{
		{"^A", "beginning-of-line"},
		{"^B", "backward-char"},
		{"^D", "delete-char-or-list"},
		{"^E", "end-of-line"},
		{"^F", "forward-char"},
		{"^G", "send-break"},
		{"^H", "backward-delete-char"},
		{"^I", "expand-or-complete"},
		{"^J", "accept-line"},
		{"^K", "kill-line"},
		{"^L", "clear-screen"},
		{"^M", "accept-line"},
		{"^N", "down-history"},
		{"^O", "accept-and-hold"},
		{"^P", "up-history"},
		{"^Q", "push-line"},
		{"^T", "transpose-chars"},
		{"^U", "backward-kill-line"},
		{"^V", "quoted-insert"},
		{"^W", "backward-kill-word"},
		{"^_", "undo"},
		{"^?", "backward-delete-char"},
		{"^X^U", "undo"},
		{"^X?", "describe-key-briefly"},
		{"^Xw", "where-is"},
		{"^Xr", "recursive-edit"},
		{"^Xu", "universal-argument"},
		{"^Xb", "argument-base"},
		{"^[x", "execute-named-cmd"},
		{"^[d", "kill-word"},
		{"^[^H", "backward-kill-word"},
		{"^[^?", "backward-kill-word"},
		{"^[^D", "list-choices"},
		{"^[^I", "menu-complete"},
		{"^[-", "neg-argument"},
		{"^[0", "digit-argument"},
		{"^[1", "digit-argument"},
		{"^[2", "digit-argument"},
		{"^[3", "digit-argument"},
		{"^[4", "digit-argument"},
		{"^[5", "digit-argument"},
		{"^[6", "digit-argument"},
		{"^[7", "digit-argument"},
		{"^[8", "digit-argument"},
		{"^[9", "digit-argument"},
		{"<Up>", "up-history"},
		{"<Down>", "down-history"},
		{"<Right>", "forward-char"},
		{"<Left>", "backward-char"},
		{"<Home>", "beginning-of-line"},
		{"<End>", "end-of-line"},
		{"<Del>", "delete-char"},
	})
	return km
}

// DefaultVIInsKeymap returns the default vi insert-mode bindings.
func DefaultVIInsKeymap() *Keymap {
	km := New(VIIns)
	bindSelfInsert(km)
	bindAll(km, [][2]string{
		{"^D", "list-choices"},
		{"^H", "backward-delete-char"},
		{"^I", "expand-or-complete"},
		{"^J", "accept-line"},
		{"^L", "clear-screen"},
		{"^M", "accept-line"},
		{"^R", "redisplay"},
		{"^U", "backward-kill-line"},
		{"^V", "quoted-insert"},
		{"^W", "backward-kill-word"},
		{"^[", "vi-cmd-mode"},
		{"^?", "backward-delete-char"},
		{"<Up>", "up-history"},
		{"<Down>", "down-history"},
		{"<Right>", "forward-char"},
		{"<Left>", "backward-char"},
	})
	return km
}

// DefaultVICmdKeymap returns the default vi command-mode bindings.
func DefaultVICmdKeymap() *Keymap {
	return bindAll(New(VICmd), [][2]string{
		{"^D", "list-choices"},
		{"^G", "send-break"},
		{"^H", "vi-backward-char"},
		{"^J", "accept-line"},
		{"^L", "clear-screen"},
		{"^M", "accept-line"},
		{"^R", "redisplay"},
		{"^?", "vi-backward-char"},
		{" ", "vi-forward-char"},
		{"$", "end-of-line"},
		{"0", "beginning-of-line"},
		{"1", "digit-argument"},
		{"2", "digit-argument"},
		{"3", "digit-argument"},
		{"4", "digit-argument"},
		{"5", "digit-argument"},
		{"6", "digit-argument"},
		{"7", "digit-argument"},
		{"8", "digit-argument"},
		{"9", "digit-argument"},
		{"a", "vi-add-next"},
		{"h", "vi-backward-char"},
		{"i", "vi-insert"},
		{"j", "down-history"},
		{"k", "up-history"},
		{"l", "vi-forward-char"},
		{"u", "undo"},
		{"x", "delete-char"},
		{":", "execute-named-cmd"},
	})
}
