package lineedit

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInsertSession(t *testing.T, cols int, multiline bool) *Session {
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
		Multiline:  multiline,
		InsertMode: true,
		LineOffset: []int{0},
		class:      DefaultClassifier,
	}
}

// Scenario 1 from spec.md §8: typing "hello" then committing.
func TestInsertThenCommit(t *testing.T) {
	s := newInsertSession(t, 40, true)
	typeString(s, "hello")

	assert.Equal(t, "hello", string(s.Buffer))
	assert.True(t, commitLine(s))
	assert.Equal(t, "hello", s.commit())
	assert.Equal(t, 0, len(s.Buffer))
}

// B1: a row that fills exactly at the terminal width wraps on the next
// codepoint, never leaving a row at width+1.
func TestInsertWrapsAtRowBoundary(t *testing.T) {
	s := newInsertSession(t, 10, true)
	typeString(s, "123456789") // 9 chars, one short of the width

	assert.Equal(t, []int{0}, s.LineOffset)
	assert.Equal(t, 9, s.PosX)
	assert.Equal(t, 0, s.PosY)

	s.insertRune('0') // the 10th char fills the row exactly
	assert.Equal(t, []int{0}, s.LineOffset)

	s.insertRune('x') // the 11th char starts a new row
	assert.Equal(t, []int{0, 10}, s.LineOffset)
	assert.Equal(t, 1, s.PosX)
	assert.Equal(t, 1, s.PosY)
}

// Scenario 3 / B2: overwriting a codepoint with a wider one grows the
// buffer and the byte length delta is applied going forward.
func TestOverwriteInteriorGrowsBuffer(t *testing.T) {
	s := newInsertSession(t, 40, true)
	s.InsertMode = false
	s.Buffer = []byte("cafe")
	s.NChars = 4
	s.LineOffset = []int{0}
	s.Offset = 3
	s.PosX = 3
	s.PosY = 0

	s.insertRune('é')

	assert.Equal(t, "café", string(s.Buffer))
	assert.Equal(t, 5, s.Offset)
	assert.Equal(t, 4, s.PosX)
}

// Overwriting a codepoint with a narrower one shrinks the buffer and
// shifts every later row start by the (negative) byte length delta.
func TestOverwriteInteriorShrinksBufferAndShiftsLaterRows(t *testing.T) {
	s := newInsertSession(t, 40, true)
	s.InsertMode = false
	s.Buffer = []byte("café more")
	s.NChars = 9
	s.LineOffset = []int{0, 5}
	s.Offset = 3
	s.PosX = 3
	s.PosY = 0

	s.insertRune('e')

	assert.Equal(t, "cafe more", string(s.Buffer))
	assert.Equal(t, []int{0, 4}, s.LineOffset)
}

// B3: a single-line session scrolls its visible window once the cursor
// crosses the 90% threshold, drawing the "«" indicator and shifting
// LineOffset[0] forward by the 10% window.
func TestInsertSingleLineScrollsAtThreshold(t *testing.T) {
	s := newInsertSession(t, 10, false)
	typeString(s, "012345678") // 9 chars; threshold not yet crossed

	assert.Equal(t, []int{0}, s.LineOffset)
	assert.Equal(t, 9, s.PosX)
	assert.Equal(t, 0, s.PosY)

	s.insertRune('9') // 10th char: InitialCol(1)+PosX(9) = 10 > threshold(9)

	assert.Equal(t, "0123456789", string(s.Buffer))
	assert.Equal(t, []int{1}, s.LineOffset)
	assert.Equal(t, 9, s.PosX)
	assert.Equal(t, 0, s.PosY) // single-line never advances PosY
}

// An interior insert rewrites the whole shifted tail, which would
// otherwise leave the terminal cursor at end-of-line; insertRune must
// reposition it back to the logical (PosX, PosY).
func TestInsertInteriorRepositionsCursor(t *testing.T) {
	s := newInsertSession(t, 40, true)
	typeString(s, "abc")
	backwardChar(s)
	backwardChar(s) // cursor now sits before 'b', PosX == 1

	s.insertRune('X')

	assert.Equal(t, "aXbc", string(s.Buffer))
	assert.Equal(t, 2, s.Offset)
	assert.Equal(t, 2, s.PosX)
	assert.Equal(t, 0, s.PosY)
}

// Scenario 6: typing the first character clears an empty-buffer hint
// message before the new byte stream is written.
func TestInsertRuneClearsEmptyMessage(t *testing.T) {
	s := newInsertSession(t, 40, true)
	s.EmptyMessage = "(type to search)"
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	s.fd = int(w.Fd())

	s.insertRune('a')

	assert.Equal(t, "a", string(s.Buffer))
	assert.Equal(t, 1, s.PosX)

	out := make([]byte, 64)
	n, err := r.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "\x1b[Ka", string(out[:n]))
}
