package lineedit

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActionSession(t *testing.T, cols int) *Session {
	t.Helper()
	_, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	return &Session{
		fd:         int(w.Fd()),
		sigFD:      -1,
		TermCols:   cols,
		TermRows:   24,
		InitialCol: 1,
		InitialRow: 1,
		Multiline:  true,
		InsertMode: true,
		LineOffset: []int{0},
		class:      DefaultClassifier,
	}
}

func typeString(s *Session, str string) {
	for _, r := range str {
		s.insertRune(r)
	}
}

// R1: backward_char then forward_char is the identity on visible state.
func TestBackwardForwardCharIsIdentity(t *testing.T) {
	s := newActionSession(t, 40)
	typeString(s, "hello")

	wantOffset, wantX, wantY := s.Offset, s.PosX, s.PosY

	backwardChar(s)
	forwardChar(s)

	assert.Equal(t, wantOffset, s.Offset)
	assert.Equal(t, wantX, s.PosX)
	assert.Equal(t, wantY, s.PosY)
}

// R2: home then end is the identity on offset and pos given no edit.
func TestHomeEndIsIdentity(t *testing.T) {
	s := newActionSession(t, 40)
	typeString(s, "hello world")

	wantOffset, wantX, wantY := s.Offset, s.PosX, s.PosY

	beginningOfLine(s)
	endOfLine(s)

	assert.Equal(t, wantOffset, s.Offset)
	assert.Equal(t, wantX, s.PosX)
	assert.Equal(t, wantY, s.PosY)
}

// R3: typing s then backspacing codepoint_count(s) times empties the buffer.
func TestTypeThenBackspaceEmpties(t *testing.T) {
	s := newActionSession(t, 40)
	typeString(s, "héllo")

	for range []rune("héllo") {
		backspace(s)
	}

	assert.Equal(t, 0, len(s.Buffer))
	assert.Equal(t, 0, s.NChars)
	assert.Equal(t, 0, s.Offset)
}

func TestBeginningOfLine(t *testing.T) {
	s := newActionSession(t, 40)
	s.PromptLen = 2
	s.PosX = 2
	typeString(s, "hi")

	beginningOfLine(s)

	assert.Equal(t, 0, s.Offset)
	assert.Equal(t, 2, s.PosX)
	assert.Equal(t, 0, s.PosY)
}

// Scenario 4: "one two three", Alt-B twice, then Ctrl-U.
func TestWordNavigationAndKillToStart(t *testing.T) {
	s := newActionSession(t, 40)
	s.PromptLen = 0
	typeString(s, "one two three")

	backwardWord(s)
	assert.Equal(t, 8, s.Offset)

	backwardWord(s)
	assert.Equal(t, 4, s.Offset)

	killToStart(s)
	assert.Equal(t, "two three", string(s.Buffer))
	assert.Equal(t, 0, s.Offset)
	assert.Equal(t, s.PromptLen, s.PosX)
}

func TestKillToEnd(t *testing.T) {
	s := newActionSession(t, 40)
	typeString(s, "hello world")
	s.Offset = 5
	s.PosX = 5
	s.PosY = 0

	killToEnd(s)

	assert.Equal(t, "hello", string(s.Buffer))
	assert.Equal(t, 5, s.NChars)
}

// B4: Ctrl-U at end of a wrapped buffer erases everything and the
// wrapped row count collapses back to one.
func TestKillToStartAtEndClearsWrappedBuffer(t *testing.T) {
	s := newActionSession(t, 10)
	typeString(s, "abcdefghijklmnopqrst") // wraps at least once with cols=10
	require.Greater(t, len(s.LineOffset), 1)

	killToStart(s)

	assert.Equal(t, 0, len(s.Buffer))
	assert.Equal(t, []int{0}, s.LineOffset)
}

func TestToggleInsert(t *testing.T) {
	s := newActionSession(t, 40)
	assert.True(t, s.InsertMode)
	toggleInsert(s)
	assert.False(t, s.InsertMode)
}

func TestCommitLineReturnsTrue(t *testing.T) {
	s := newActionSession(t, 40)
	assert.True(t, commitLine(s))
}
