package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/xveil/internal/keysym"
	"github.com/1broseidon/xveil/internal/lock"
)

// numLockMask is the modifier most keymaps bind Num_Lock to.
const numLockMask = xproto.ModMask2

// lookupFunc returns the keysym in column col of keycode's mapping.
type lookupFunc func(code xproto.Keycode, col byte) uint32

func xutilLookup(xu *xgbutil.XUtil) lookupFunc {
	return func(code xproto.Keycode, col byte) uint32 {
		return uint32(keybind.KeysymGet(xu, code, col))
	}
}

// resolveKeysym applies the core protocol column rules: Shift selects the
// second column, Num_Lock does the same for keypad keys and Lock upcases
// letters.
func resolveKeysym(lookup lookupFunc, code xproto.Keycode, state uint16) uint32 {
	shift := state&xproto.ModMaskShift != 0
	caps := state&xproto.ModMaskLock != 0

	if state&numLockMask != 0 {
		if sym := lookup(code, 1); keysym.IsKeypad(sym) {
			if shift {
				return lookup(code, 0)
			}
			return sym
		}
	}

	sym := lookup(code, 0)
	if shift {
		if second := lookup(code, 1); second != keysym.NoSymbol {
			sym = second
		} else {
			sym = keysym.Upper(sym)
		}
	}
	if caps {
		sym = keysym.Upper(sym)
	}
	return sym
}

func decodeKey(lookup lookupFunc, code xproto.Keycode, state uint16) lock.Key {
	sym := resolveKeysym(lookup, code, state)
	return lock.Key{Sym: sym, Text: keysym.Text(sym)}
}
