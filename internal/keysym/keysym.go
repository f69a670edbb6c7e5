// Package keysym classifies X keysyms and maps them to the text they type.
package keysym

import "unicode"

// Keysyms the lock controller reacts to.
const (
	BackSpace uint32 = 0xff08
	Tab       uint32 = 0xff09
	Return    uint32 = 0xff0d
	Escape    uint32 = 0xff1b
	Delete    uint32 = 0xffff

	KPSpace    uint32 = 0xff80
	KPTab      uint32 = 0xff89
	KPEnter    uint32 = 0xff8d
	KPMultiply uint32 = 0xffaa
	KPAdd      uint32 = 0xffab
	KPDivide   uint32 = 0xffaf
	KP0        uint32 = 0xffb0
	KP9        uint32 = 0xffb9
	KPEqual    uint32 = 0xffbd

	NoSymbol uint32 = 0
)

// Ignored reports whether sym belongs to a class the locker drops without
// touching the secret: private keypad keys, F1..F35, misc function keys
// (Select, Print, Menu, ...) and the PF keys.
func Ignored(sym uint32) bool {
	switch {
	case sym >= 0x11000000 && sym <= 0x1100ffff:
		return true
	case sym >= 0xffbe && sym <= 0xffe0:
		return true
	case sym >= 0xff60 && sym <= 0xff6b:
		return true
	case sym >= 0xff91 && sym <= 0xff94:
		return true
	}
	return false
}

// IsEnter reports whether sym submits the secret.
func IsEnter(sym uint32) bool {
	return sym == Return || sym == KPEnter
}

// keypad maps keypad keysyms in 0xff80-0xffbd to the character they type.
var keypad = map[uint32]rune{
	KPSpace:  ' ',
	KPTab:    '\t',
	KPEnter:  '\r',
	0xffaa:   '*',
	0xffab:   '+',
	0xffac:   ',',
	0xffad:   '-',
	0xffae:   '.',
	0xffaf:   '/',
	KPEqual:  '=',
}

// Text returns the UTF-8 text a key press with sym types, or "" when the
// keysym has no character.
func Text(sym uint32) string {
	r, ok := Rune(sym)
	if !ok {
		return ""
	}
	return string(r)
}

// Rune maps sym to a Unicode code point.
func Rune(sym uint32) (rune, bool) {
	switch {
	case sym >= 0x20 && sym <= 0x7e, sym >= 0xa0 && sym <= 0xff:
		// Latin-1 keysyms are their own code points.
		return rune(sym), true
	case sym >= 0x01000100 && sym <= 0x0110ffff:
		r := rune(sym - 0x01000000)
		if r >= 0xd800 && r <= 0xdfff {
			return 0, false
		}
		return r, true
	case sym >= KP0 && sym <= KP9:
		return rune('0' + sym - KP0), true
	case sym == BackSpace, sym == Tab, sym == Return, sym == Escape:
		return rune(sym & 0x7f), true
	case sym == Delete:
		return 0x7f, true
	}
	if r, ok := keypad[sym]; ok {
		return r, true
	}
	return 0, false
}

// IsKeypad reports whether sym is a keypad keysym.
func IsKeypad(sym uint32) bool {
	return sym >= KPSpace && sym <= KPEqual
}

// Upper returns the uppercase keysym for a lowercase letter and sym
// otherwise.
func Upper(sym uint32) uint32 {
	switch {
	case sym >= 'a' && sym <= 'z':
		return sym - 0x20
	case sym >= 0xe0 && sym <= 0xfe && sym != 0xf7:
		return sym - 0x20
	case sym >= 0x01000100 && sym <= 0x0110ffff:
		if u := unicode.ToUpper(rune(sym - 0x01000000)); u >= 0x100 {
			return uint32(u) + 0x01000000
		} else if u != rune(sym-0x01000000) {
			return uint32(u)
		}
	}
	return sym
}
