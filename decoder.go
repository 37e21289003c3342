package lineedit

import (
	"time"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// RawDecoder is a reference KeyDecoder that parses the classic VT100/
// xterm escape sequences directly off a file descriptor, the way
// xyproto-gilo's term.go readKey does — translated here from a blocking
// byte-at-a-time reader into the pull-style, non-blocking shape the
// Session requires. A host application with a richer terminal-input
// library is expected to supply its own KeyDecoder instead.
type RawDecoder struct {
	fd  int
	buf []byte
	eof bool
}

// NewRawDecoder returns a RawDecoder reading from fd, which must already
// be in raw mode and non-blocking.
func NewRawDecoder(fd int) *RawDecoder {
	return &RawDecoder{fd: fd}
}

func (d *RawDecoder) EOF() bool { return d.eof && len(d.buf) == 0 }

// AdviseReadable drains whatever is currently available on fd into the
// decoder's internal buffer.
func (d *RawDecoder) AdviseReadable() {
	var tmp [256]byte
	for {
		n, err := unix.Read(d.fd, tmp[:])
		if n > 0 {
			d.buf = append(d.buf, tmp[:n]...)
		}
		if n == 0 && err == nil {
			d.eof = true
			return
		}
		if err != nil || n < len(tmp) {
			return
		}
	}
}

// Next tries to decode one key from the buffered bytes without
// blocking. It returns ok=false if the buffer is empty or holds an
// escape sequence that is not yet complete.
func (d *RawDecoder) Next() (Key, bool) {
	if len(d.buf) == 0 {
		return Key{}, false
	}

	if d.buf[0] == 0x1b {
		return d.decodeEscape()
	}

	return d.decodePlain()
}

// ForcePull blocks up to timeout for more bytes to resolve an ambiguous
// leading ESC, then retries Next.
func (d *RawDecoder) ForcePull(timeout time.Duration) (Key, bool) {
	if key, ok := d.Next(); ok {
		return key, ok
	}
	if len(d.buf) == 0 {
		return Key{}, false
	}

	pfd := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	ms := forcePullTimeoutMs(timeout)
	if ms == 0 {
		ms = 1
	}
	if n, err := unix.Poll(pfd, ms); err == nil && n > 0 {
		d.AdviseReadable()
	}

	if key, ok := d.Next(); ok {
		return key, ok
	}

	// Nothing resolved a lone ESC within the deadline: there is no
	// bound Escape key in the dispatch table, so drop it rather than
	// getting stuck forever.
	if d.buf[0] == 0x1b {
		d.buf = d.buf[1:]
	}
	return Key{}, false
}

func (d *RawDecoder) decodePlain() (Key, bool) {
	b0 := d.buf[0]

	switch b0 {
	case 0x0d, 0x0a:
		d.buf = d.buf[1:]
		return Key{Type: KeySymbol, Sym: SymEnter}, true
	case 0x7f, 0x08:
		d.buf = d.buf[1:]
		return Key{Type: KeySymbol, Sym: SymBackspace}, true
	}

	if b0 < 0x20 {
		d.buf = d.buf[1:]
		return Key{Type: KeyUnicode, Mod: ModCtrl, Codepoint: rune('a' + b0 - 1)}, true
	}

	r, size := utf8.DecodeRune(d.buf)
	if r == utf8.RuneError && size <= 1 {
		if !utf8.FullRune(d.buf) {
			return Key{}, false
		}
		d.buf = d.buf[1:]
		return Key{}, false
	}
	d.buf = d.buf[size:]
	return Key{Type: KeyUnicode, Codepoint: r}, true
}

func (d *RawDecoder) decodeEscape() (Key, bool) {
	if len(d.buf) < 2 {
		return Key{}, false
	}

	switch d.buf[1] {
	case '[':
		return d.decodeCSI()
	case 'O':
		if len(d.buf) < 3 {
			return Key{}, false
		}
		sym, ok := symFor(d.buf[2])
		d.buf = d.buf[3:]
		if !ok {
			return Key{}, false
		}
		return Key{Type: KeySymbol, Sym: sym}, true
	default:
		// ESC followed immediately by a plain character is the
		// conventional encoding for Alt+that character.
		r, size := utf8.DecodeRune(d.buf[1:])
		if r == utf8.RuneError {
			return Key{}, false
		}
		d.buf = d.buf[1+size:]
		return Key{Type: KeyUnicode, Mod: ModAlt, Codepoint: r}, true
	}
}

func (d *RawDecoder) decodeCSI() (Key, bool) {
	if len(d.buf) < 3 {
		return Key{}, false
	}
	c := d.buf[2]
	if c >= '0' && c <= '9' {
		// Numeric CSI sequence, e.g. ESC [ 3 ~ (Delete).
		i := 2
		for i < len(d.buf) && d.buf[i] >= '0' && d.buf[i] <= '9' {
			i++
		}
		if i >= len(d.buf) {
			return Key{}, false
		}
		if d.buf[i] != '~' {
			d.buf = d.buf[i+1:]
			return Key{}, false
		}
		sym, ok := numericSymFor(string(d.buf[2:i]))
		d.buf = d.buf[i+1:]
		if !ok {
			return Key{}, false
		}
		return Key{Type: KeySymbol, Sym: sym}, true
	}

	sym, ok := symFor(c)
	d.buf = d.buf[3:]
	if !ok {
		return Key{}, false
	}
	return Key{Type: KeySymbol, Sym: sym}, true
}

func symFor(c byte) (Sym, bool) {
	switch c {
	case 'A':
		return SymUp, true
	case 'B':
		return SymDown, true
	case 'C':
		return SymRight, true
	case 'D':
		return SymLeft, true
	case 'H':
		return SymHome, true
	case 'F':
		return SymEnd, true
	default:
		return SymNone, false
	}
}

func numericSymFor(s string) (Sym, bool) {
	switch s {
	case "1", "7":
		return SymHome, true
	case "2":
		return SymInsert, true
	case "3":
		return SymDelete, true
	case "4", "8":
		return SymEnd, true
	default:
		return SymNone, false
	}
}
