package lineedit

// action mutates the session for one dispatched key and reports whether
// the edit is complete (Enter/commit).
type action func(s *Session) bool

// dispatchKey is the lookup key for the global, immutable dispatch
// table: a decoded key is symbolic or not, carries a restricted
// modifier mask, and a code that is either a Sym or a rune.
type dispatchKey struct {
	symbolic bool
	mod      Mod
	code     int64
}

// keyTable is process-wide constant state, built once and never
// mutated at runtime.
var keyTable = map[dispatchKey]action{
	{false, ModCtrl, int64('a')}:     beginningOfLine,
	{true, ModNone, int64(SymHome)}:  beginningOfLine,
	{false, ModCtrl, int64('e')}:     endOfLine,
	{true, ModNone, int64(SymEnd)}:   endOfLine,
	{true, ModNone, int64(SymInsert)}: toggleInsert,
	{true, ModNone, int64(SymEnter)}: commitLine,
	{true, ModNone, int64(SymLeft)}:  backwardChar,
	{true, ModNone, int64(SymRight)}: forwardChar,
	{true, ModNone, int64(SymUp)}:    previousScreenLine,
	{true, ModNone, int64(SymDown)}:  nextScreenLine,
	{true, ModNone, int64(SymBackspace)}: backspace,
	{true, ModNone, int64(SymDelete)}:    deleteChar,
	{false, ModAlt, int64('b')}: backwardWord,
	{false, ModAlt, int64('f')}: forwardWord,
	{false, ModCtrl, int64('u')}: killToStart,
	{false, ModCtrl, int64('k')}: killToEnd,
}

func lookupAction(key Key) (action, bool) {
	var dk dispatchKey
	dk.mod = key.Mod & (ModAlt | ModShift | ModCtrl)
	if key.Type == KeySymbol {
		dk.symbolic = true
		dk.code = int64(key.Sym)
	} else {
		dk.symbolic = false
		dk.code = int64(key.Codepoint)
	}
	a, ok := keyTable[dk]
	return a, ok
}

func beginningOfLine(s *Session) bool {
	if s.Offset == 0 {
		return false
	}
	s.Offset = 0
	s.PosX = s.PromptLen
	s.PosY = 0
	s.RequestedPosX = s.PosX
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func endOfLine(s *Session) bool {
	if s.Offset == len(s.Buffer) {
		return false
	}
	s.PosY = len(s.LineOffset) - 1
	n := visibleCount(s.Buffer, s.LineOffset[s.PosY], len(s.Buffer))
	s.PosX = n
	if s.PosY == 0 {
		s.PosX += s.PromptLen
	}
	s.RequestedPosX = s.PosX
	s.Offset = len(s.Buffer)
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func toggleInsert(s *Session) bool {
	s.InsertMode = !s.InsertMode
	return false
}

func commitLine(s *Session) bool {
	return true
}

func backwardChar(s *Session) bool {
	if s.Offset == 0 {
		return false
	}
	start, _ := runeBefore(s.Buffer, s.Offset)
	s.Offset = start
	if s.PosX == 0 {
		if s.Multiline {
			s.PosX = s.TermCols - 1
			s.PosY--
		}
	} else {
		s.PosX--
	}
	s.RequestedPosX = s.PosX
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func forwardChar(s *Session) bool {
	if s.Offset == len(s.Buffer) {
		return false
	}
	s.Offset += utf8Step(s.Buffer[s.Offset])
	if s.PosX+1 == s.TermCols {
		if s.Multiline {
			s.PosX = 0
			s.PosY++
		}
	} else {
		s.PosX++
	}
	s.RequestedPosX = s.PosX
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func previousScreenLine(s *Session) bool {
	if s.PosY == 0 {
		return false
	}
	if s.PosY <= 1 && s.RequestedPosX <= s.PromptLen {
		return false
	}
	s.PosY--
	target := s.RequestedPosX
	if s.PosY == 0 {
		target -= s.PromptLen
	}
	off, n := offsetAfterNChars(s.Buffer, s.LineOffset[s.PosY], target)
	s.Offset = off
	s.PosX = n
	if s.PosY == 0 {
		s.PosX += s.PromptLen
	}
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func nextScreenLine(s *Session) bool {
	if s.PosY+1 >= len(s.LineOffset) {
		return false
	}
	s.PosY++
	target := s.RequestedPosX
	off, n := offsetAfterNChars(s.Buffer, s.LineOffset[s.PosY], target)
	s.Offset = off
	s.PosX = n
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

// backspace removes the codepoint before Offset and redraws the
// affected suffix, all in one vectored write: a move to the new
// (PosX, PosY), the remainder of the buffer from the new offset, a
// single space to erase the former last column, then a cursor
// reposition back to (PosX, PosY).
func backspace(s *Session) bool {
	if s.Offset == 0 {
		return false
	}
	oldOffset := s.Offset
	start, _ := runeBefore(s.Buffer, s.Offset)
	s.Offset = start
	if s.PosX == 0 {
		if s.Multiline {
			s.PosX = s.TermCols - 1
			s.PosY--
		}
	} else {
		s.PosX--
	}

	s.Buffer = append(s.Buffer[:s.Offset], s.Buffer[oldOffset:]...)
	s.NChars--
	s.recomputeLineOffsets(s.PosY)

	s.RequestedPosX = s.PosX
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.bytes(s.Buffer[s.Offset:])
	b.str(" ")
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func deleteChar(s *Session) bool {
	if s.Offset == len(s.Buffer) {
		return false
	}
	n := utf8Step(s.Buffer[s.Offset])
	s.Buffer = append(s.Buffer[:s.Offset], s.Buffer[s.Offset+n:]...)
	s.NChars--
	s.recomputeLineOffsets(s.PosY)

	s.RequestedPosX = s.PosX
	var b outputBatch
	b.bytes(s.Buffer[s.Offset:])
	b.str(" ")
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

// killToStart implements Ctrl-U: erase Buffer[0:Offset], reset to the
// prompt column on row 0, and fully recompute LineOffset.
func killToStart(s *Session) bool {
	oldRows := len(s.LineOffset)
	s.Buffer = append([]byte{}, s.Buffer[s.Offset:]...)
	s.NChars = visibleCount(s.Buffer, 0, len(s.Buffer))
	s.Offset = 0
	s.PosX = s.PromptLen
	s.PosY = 0
	s.RequestedPosX = s.PosX
	s.LineOffset = []int{0}
	s.recomputeLineOffsets(0)

	var b outputBatch
	b.moveTo(s, s.PromptLen, 0)
	b.bytes(s.Buffer)
	b.str("\x1b[K")
	for i := len(s.LineOffset); i < oldRows; i++ {
		b.str("\n\x1b[K")
	}
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

// killToEnd implements Ctrl-K: truncate the buffer at Offset.
func killToEnd(s *Session) bool {
	oldRows := len(s.LineOffset)
	s.Buffer = s.Buffer[:s.Offset]
	s.NChars = visibleCount(s.Buffer, 0, len(s.Buffer))
	s.recomputeLineOffsets(s.PosY)

	var b outputBatch
	b.str("\x1b[K")
	for i := len(s.LineOffset); i < oldRows; i++ {
		b.str("\n\x1b[K")
	}
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

// backwardWord scans left for the transition from non-word to word,
// going codepoint by codepoint using s.class. It introduces a distinct
// lookahead codepoint on each step rather than reusing one variable
// across iterations, which is the bug spec.md §9 warns against
// transliterating from the original source.
func backwardWord(s *Session) bool {
	if s.Offset == 0 {
		return false
	}
	prevStart, _ := runeBefore(s.Buffer, s.Offset)
	cur := decodeRuneAt(s.Buffer, prevStart)
	p := prevStart
	for p > 0 {
		priorStart, _ := runeBefore(s.Buffer, p)
		prior := decodeRuneAt(s.Buffer, priorStart)
		if s.class.IsWordRune(cur) && !s.class.IsWordRune(prior) {
			break
		}
		p = priorStart
		cur = prior
	}

	s.Offset = p
	for s.LineOffset[s.PosY] > s.Offset {
		s.PosY--
	}
	s.PosX = visibleCount(s.Buffer, s.LineOffset[s.PosY], s.Offset)
	if s.PosY == 0 {
		s.PosX += s.PromptLen
	}
	s.RequestedPosX = s.PosX
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

// forwardWord scans right for the transition from word to non-word.
func forwardWord(s *Session) bool {
	if s.Offset+1 >= len(s.Buffer) {
		return false
	}
	p := s.Offset + utf8Step(s.Buffer[s.Offset])
	if p < len(s.Buffer) {
		cur := decodeRuneAt(s.Buffer, p)
		q := p + utf8Step(s.Buffer[p])
		for {
			if q >= len(s.Buffer) {
				p = len(s.Buffer)
				break
			}
			next := decodeRuneAt(s.Buffer, q)
			if s.class.IsWordRune(cur) && !s.class.IsWordRune(next) {
				p = q
				break
			}
			p = q
			q += utf8Step(s.Buffer[q])
			cur = next
		}
	}

	s.Offset = p
	for s.PosY+1 < len(s.LineOffset) && s.Offset >= s.LineOffset[s.PosY+1] {
		s.PosY++
	}
	s.PosX = visibleCount(s.Buffer, s.LineOffset[s.PosY], s.Offset)
	if s.PosY == 0 {
		s.PosX += s.PromptLen
	}
	s.RequestedPosX = s.PosX
	var b outputBatch
	b.moveTo(s, s.PosX, s.PosY)
	b.flush(s.fd)
	return false
}

func decodeRuneAt(buf []byte, offset int) rune {
	n := utf8Step(buf[offset])
	var r rune
	switch n {
	case 1:
		r = rune(buf[offset])
	case 2:
		r = rune(buf[offset]&0x1f)<<6 | rune(buf[offset+1]&0x3f)
	case 3:
		r = rune(buf[offset]&0x0f)<<12 | rune(buf[offset+1]&0x3f)<<6 | rune(buf[offset+2]&0x3f)
	default:
		r = rune(buf[offset]&0x07)<<18 | rune(buf[offset+1]&0x3f)<<12 | rune(buf[offset+2]&0x3f)<<6 | rune(buf[offset+3]&0x3f)
	}
	return r
}
