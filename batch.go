package lineedit

import "fmt"

// outputBatch accumulates the pieces of a single redraw so they can be
// flushed to the terminal with one vectored write. Edit actions that
// combine text, clear sequences, and a cursor reposition build one of
// these rather than issuing several independent writes.
type outputBatch struct {
	parts [][]byte
}

func (b *outputBatch) str(s string) {
	if s == "" {
		return
	}
	b.parts = append(b.parts, []byte(s))
}

func (b *outputBatch) bytes(p []byte) {
	if len(p) == 0 {
		return
	}
	b.parts = append(b.parts, p)
}

// moveTo appends the cursor-positioning escape for (x, y) relative to
// the edit's top-left corner.
func (b *outputBatch) moveTo(s *Session, x, y int) {
	b.str(fmt.Sprintf("\x1b[%d;%dH", s.InitialRow+y, s.InitialCol+x))
}

func (b *outputBatch) flush(fd int) error {
	return writev(fd, b.parts...)
}
