package lineedit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder is a canned KeyDecoder: it yields a fixed key sequence and
// then reports exhaustion (optionally EOF) from then on.
type fakeDecoder struct {
	keys []Key
	i    int
	eof  bool
}

func (d *fakeDecoder) AdviseReadable()                              {}
func (d *fakeDecoder) ForcePull(time.Duration) (Key, bool)          { return Key{}, false }
func (d *fakeDecoder) EOF() bool                                    { return d.eof }
func (d *fakeDecoder) Next() (Key, bool) {
	if d.i >= len(d.keys) {
		return Key{}, false
	}
	k := d.keys[d.i]
	d.i++
	return k, true
}

func unicodeKey(r rune) Key        { return Key{Type: KeyUnicode, Codepoint: r} }
func ctrlKey(r rune) Key           { return Key{Type: KeyUnicode, Mod: ModCtrl, Codepoint: r} }
func symKey(sym Sym) Key           { return Key{Type: KeySymbol, Sym: sym} }

func newOpenSession(t *testing.T, dec KeyDecoder) (*Session, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { w.Close(); r.Close() })

	s := &Session{
		fd:         int(w.Fd()),
		sigFD:      -1,
		TermCols:   40,
		TermRows:   24,
		InitialCol: 1,
		InitialRow: 1,
		Multiline:  true,
		InsertMode: true,
		LineOffset: []int{0},
		class:      DefaultClassifier,
		dec:        dec,
		termState:  stateOpen,
	}
	return s, w
}

// Scenario 5: an empty buffer plus Ctrl-D is a cancel, not an insertion.
func TestProcessCtrlDCancelsOnEmptyBuffer(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{keys: []Key{ctrlKey('d')}})

	line, ready, handled := s.Process(Event{FD: s.fd})

	assert.True(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "", line)
	assert.Equal(t, stateClosed, s.termState)
}

// Ctrl-D with pending text must not cancel: it falls through the
// dispatch table, which has no binding for it, so the edit continues.
func TestProcessCtrlDIgnoredWithPendingText(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{keys: []Key{ctrlKey('d')}})
	s.Buffer = []byte("x")
	s.NChars = 1
	s.Offset = 1
	s.PosX = 1

	line, ready, handled := s.Process(Event{FD: s.fd})

	assert.False(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "", line)
	assert.Equal(t, stateOpen, s.termState)
}

// Scenario 1: typing "hello" then Enter commits that exact line.
func TestProcessInsertThenEnterCommits(t *testing.T) {
	keys := []Key{unicodeKey('h'), unicodeKey('e'), unicodeKey('l'), unicodeKey('l'), unicodeKey('o'), symKey(SymEnter)}
	s, _ := newOpenSession(t, &fakeDecoder{keys: keys})

	line, ready, handled := s.Process(Event{FD: s.fd})

	assert.True(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "hello", line)
	assert.Equal(t, stateClosed, s.termState)
}

// Ctrl-C cancels unconditionally, even with buffered text.
func TestProcessCtrlCCancelsWithPendingText(t *testing.T) {
	keys := []Key{unicodeKey('h'), unicodeKey('i'), ctrlKey('c')}
	s, _ := newOpenSession(t, &fakeDecoder{keys: keys})

	line, ready, handled := s.Process(Event{FD: s.fd})

	assert.True(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "", line)
}

// A decoder EOF with no terminating key commits whatever is buffered.
func TestProcessDecoderEOFCommitsPartialLine(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{keys: []Key{unicodeKey('h'), unicodeKey('i')}, eof: true})

	line, ready, handled := s.Process(Event{FD: s.fd})

	assert.True(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "hi", line)
}

// B5: a SIGWINCH readiness event re-queries the window size. On a pipe
// (not a tty) that query fails and falls back to the documented 80x25.
func TestProcessResizeEventFallsBackToDefaultSize(t *testing.T) {
	sigR, sigW, err := os.Pipe()
	require.NoError(t, err)
	defer sigR.Close()
	defer sigW.Close()

	_, err = sigW.Write(make([]byte, signalfdSiginfoSize))
	require.NoError(t, err)

	s, _ := newOpenSession(t, &fakeDecoder{})
	s.sigFD = int(sigR.Fd())
	s.TermCols, s.TermRows = 120, 40

	line, ready, handled := s.Process(Event{FD: s.sigFD})

	assert.False(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "", line)
	assert.Equal(t, 80, s.TermCols)
	assert.Equal(t, 25, s.TermRows)
}

// An event for a descriptor this session doesn't own is reported as
// unhandled so a caller sharing one epoll instance can dispatch it
// elsewhere, per spec.md §7's "unknown event fd" rule.
func TestProcessUnknownFDIsUnhandled(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{})

	line, ready, handled := s.Process(Event{FD: 99999})

	assert.False(t, ready)
	assert.False(t, handled)
	assert.Equal(t, "", line)
}

// Process on a closed session never touches its collaborators.
func TestProcessOnClosedSessionIsUnhandled(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{})
	s.termState = stateClosed

	_, ready, handled := s.Process(Event{FD: s.fd})

	assert.False(t, ready)
	assert.False(t, handled)
}

// Close marks a Session done for good: a later Prepare must refuse to
// reopen it, distinct from the termState flip a plain commit leaves
// behind for the next edit.
func TestPrepareAfterCloseReturnsErrClosed(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{})

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Prepare(), ErrClosed)
}

// A plain commit only flips termState and leaves permClosed false, so
// a later Prepare is still free to reopen the Session for the next
// line; only an explicit Close marks it done for good.
func TestCommitDoesNotPermanentlyClose(t *testing.T) {
	s, _ := newOpenSession(t, &fakeDecoder{keys: []Key{unicodeKey('h'), symKey(SymEnter)}})

	line, ready, handled := s.Process(Event{FD: s.fd})

	assert.True(t, ready)
	assert.True(t, handled)
	assert.Equal(t, "h", line)
	assert.Equal(t, stateClosed, s.termState)
	assert.False(t, s.permClosed)
}
