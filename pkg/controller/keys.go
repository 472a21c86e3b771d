package controller

import (
	"sync"

	"github.com/gdamore/tcell/v2"
)

// tcell reports printable keys as KeyRune; the board binds single letters, so each bound rune
// gets its own pseudo key above tcell's range. This keeps every binding in one
// map[tcell.Key]KeyEvent.
const (
	KeyA tcell.Key = iota + 1024
	KeyE
	KeyF
	KeyI
	KeyM
	KeyN
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyU
	KeyShiftM
	KeyShiftX
)

var runeKeys = map[rune]tcell.Key{
	'a': KeyA,
	'e': KeyE,
	'f': KeyF,
	'i': KeyI,
	'm': KeyM,
	'n': KeyN,
	'p': KeyP,
	'q': KeyQ,
	'r': KeyR,
	's': KeyS,
	'u': KeyU,
	'M': KeyShiftM,
	'X': KeyShiftX,
}

var keysOnce sync.Once

// initKeys registers names for the pseudo keys so they can be listed in page headers.
func initKeys() {
	keysOnce.Do(func() {
		for r, k := range runeKeys {
			tcell.KeyNames[k] = string(r)
		}
	})
}

// AsKey maps bound runes onto their pseudo keys; every other event keeps its own key.
func AsKey(evt *tcell.EventKey) tcell.Key {
	if evt.Key() != tcell.KeyRune {
		return evt.Key()
	}

	if k, ok := runeKeys[evt.Rune()]; ok {
		return k
	}

	return evt.Key()
}

// keyName returns how a key is shown in headers.
func keyName(k tcell.Key) string {
	if name, ok := tcell.KeyNames[k]; ok {
		return name
	}

	return "?"
}
