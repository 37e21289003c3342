package lineedit

import "time"

// Flags selects the decoration mode of an edit area. It is immutable for
// the lifetime of a Session.
type Flags int

const (
	FlagsNone Flags = iota
	// FlagsFrameLine draws a single-glyph horizontal rule above and below
	// the edit area.
	FlagsFrameLine
	// FlagsFrameBackground draws one row of half-block glyphs above and
	// one below the edit area and tints the text area to match.
	FlagsFrameBackground
)

// Color is an RGB truecolor value in the 0..255 range per channel.
type Color struct {
	R, G, B uint8
}

// Features is a bitmask of terminal capabilities.
type Features uint32

// FeatureOSC133 indicates the terminal understands OSC 133 semantic
// prompt markers.
const FeatureOSC133 Features = 1 << 0

// TermInfo is a read-only snapshot of terminal capabilities and default
// colors. It is detected by a collaborator outside this package and
// handed to a Session at construction time.
type TermInfo struct {
	DefaultForeground Color
	DefaultBackground Color
	Features          Features
}

// HasFeature reports whether f is present in the terminal's feature set.
func (t TermInfo) HasFeature(f Features) bool {
	return t.Features&f != 0
}

// Prompt supplies the text printed at the start of an edit. It is
// evaluated once per Prepare call.
type Prompt interface {
	Text() string
}

type literalPrompt string

func (p literalPrompt) Text() string { return string(p) }

type callbackPrompt func() string

func (p callbackPrompt) Text() string { return p() }

// LiteralPrompt returns a Prompt that always renders s.
func LiteralPrompt(s string) Prompt { return literalPrompt(s) }

// CallbackPrompt returns a Prompt evaluated by calling f at the start of
// each edit.
func CallbackPrompt(f func() string) Prompt { return callbackPrompt(f) }

// KeyType distinguishes a decoded Unicode codepoint from a symbolic key
// (arrows, Home, Enter, ...).
type KeyType int

const (
	KeyUnicode KeyType = iota
	KeySymbol
)

// Sym enumerates the symbolic keys the dispatch table recognizes.
type Sym int

const (
	SymNone Sym = iota
	SymHome
	SymEnd
	SymInsert
	SymEnter
	SymLeft
	SymRight
	SymUp
	SymDown
	SymBackspace
	SymDelete
)

// Mod is a bitmask of modifier keys, restricted to Alt, Shift, and Ctrl.
type Mod int

const (
	ModNone  Mod = 0
	ModAlt   Mod = 1 << 0
	ModShift Mod = 1 << 1
	ModCtrl  Mod = 1 << 2
)

// Key is a single decoded key event.
type Key struct {
	Type      KeyType
	Mod       Mod
	Codepoint rune // valid when Type == KeyUnicode
	Sym       Sym  // valid when Type == KeySymbol
}

// KeyDecoder turns raw terminal bytes into decoded Key events. It is a
// pull-style decoder: the caller advises it when the underlying file
// descriptor became readable, then repeatedly pulls whatever keys are
// fully decoded so far.
type KeyDecoder interface {
	// AdviseReadable tells the decoder that new bytes may be available
	// on its underlying descriptor; it is responsible for reading them.
	AdviseReadable()
	// Next returns the next fully decoded key without blocking. ok is
	// false if no key is currently available.
	Next() (key Key, ok bool)
	// ForcePull blocks up to timeout waiting for a key that is pending
	// behind an ambiguous escape sequence to resolve.
	ForcePull(timeout time.Duration) (key Key, ok bool)
	// EOF reports whether the underlying descriptor has reached
	// end-of-input.
	EOF() bool
}

// Classifier answers Unicode property questions the word-navigation
// actions need. It is intentionally minimal: this package treats every
// codepoint as occupying exactly one display column, so it never asks
// for anything beyond word-class membership.
type Classifier interface {
	// IsWordRune reports whether r should be treated as part of a word
	// for backward-word / forward-word navigation (Unicode categories
	// Letter and Number).
	IsWordRune(r rune) bool
}

// Event identifies a ready file descriptor delivered by the caller's
// event multiplexer.
type Event struct {
	FD int
}
