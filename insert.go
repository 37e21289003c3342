package lineedit

import "unicode/utf8"

// insertRune is the insertion path for a decoded Unicode key that
// carries neither Alt nor Ctrl. It is the most intricate action in the
// package: insert-vs-overwrite, multiline rewrap, the last-column wrap
// workaround, scroll-on-overflow, and the narrow single-line horizontal
// scroll window all live here. See SPEC_FULL.md §4.5 / original_source's
// on_key for the algorithm this was grounded on.
func (s *Session) insertRune(r rune) {
	var raw [utf8.UTFMax]byte
	l := utf8.EncodeRune(raw[:], r)
	b := raw[:l]

	var out outputBatch

	if len(s.Buffer) == 0 && s.EmptyMessage != "" {
		out.str("\x1b[K")
	}

	scrolled := false
	interior := false
	if s.InsertMode || s.Offset == len(s.Buffer) {
		s.Buffer = append(s.Buffer[:s.Offset], append(append([]byte{}, b...), s.Buffer[s.Offset:]...)...)
		s.NChars++
		interior = s.Offset+l < len(s.Buffer)

		if s.Multiline {
			s.insertMultiline(&out, l)
		} else {
			scrolled = s.insertSingleLine(&out, l)
		}
	} else {
		s.overwriteInterior(&out, b, l)
	}

	s.Offset += l
	if !scrolled {
		s.PosX++
		if s.Multiline && s.PosX == s.TermCols {
			s.PosX = 0
			s.PosY++
			out.moveTo(s, s.PosX, s.PosY)
			interior = false
		}
	}
	s.RequestedPosX = s.PosX

	// More than the inserted codepoint was written to the terminal
	// (the rest of the line, shifted right by the insert): the cursor
	// landed at the end of that redraw, not at the logical position.
	// Port of original_source/nrl.cc's on_key "to_print > 1" reposition.
	if interior && !scrolled {
		out.moveTo(s, s.PosX, s.PosY)
	}

	out.flush(s.fd)
}

// insertMultiline handles the insert-or-append branch when wrapping is
// enabled: it recomputes the wrapped rows from the current one onward
// and writes the new tail, applying the last-column wrap workaround
// when the terminal has not yet scrolled its own cursor to match our
// model, and scrolling the screen (or inserting a blank frame row) when
// the edit grew past the previous high-water mark of visual rows
// (MaxLines).
func (s *Session) insertMultiline(out *outputBatch, l int) {
	s.recomputeLineOffsets(s.PosY)

	if s.PosX == 0 && s.PosY > 0 && s.Offset+l == len(s.Buffer) {
		out.moveTo(s, s.TermCols, s.PosY-1)
		prevStart, _ := runeBefore(s.Buffer, s.Offset)
		out.bytes(s.Buffer[prevStart : s.Offset+l])
	} else {
		out.bytes(s.Buffer[s.Offset:])
	}

	if len(s.LineOffset) > s.MaxLines {
		s.MaxLines = len(s.LineOffset)
		if s.InitialRow+len(s.LineOffset)-1+s.CurFrameLines > s.TermRows {
			s.InitialRow--
			out.str("\x1b[S\r\x1b[1L")
		} else if s.CurFrameLines > 0 {
			out.str("\n\x1b[1L")
		}
	}
}

// insertSingleLine handles non-multiline sessions, which scroll the
// visible window horizontally instead of wrapping. It reports whether it
// scrolled the window, in which case it has already set the final PosX
// itself and the caller must not advance it again.
func (s *Session) insertSingleLine(out *outputBatch, l int) bool {
	threshold := max(1, int(0.9*float64(s.TermCols)))
	if s.InitialCol+s.PosX > threshold {
		shift := max(1, int(0.1*float64(s.TermCols)))
		newOffset, _ := offsetAfterNChars(s.Buffer, s.LineOffset[0], shift)
		if newOffset > s.Offset {
			newOffset = s.Offset
		}
		s.LineOffset[0] = newOffset

		out.moveTo(s, 1, 0)
		out.str("«")
		s.PosX = 1 + visibleCount(s.Buffer, newOffset, s.Offset)
		tail, _ := offsetAfterNChars(s.Buffer, newOffset, s.TermCols-1)
		out.bytes(s.Buffer[s.LineOffset[0]:tail])
		return true
	}

	n := min(s.TermCols-(s.InitialCol+s.PosX), len(s.Buffer))
	tail, _ := offsetAfterNChars(s.Buffer, s.Offset, n)
	out.bytes(s.Buffer[s.Offset:tail])
	return false
}

// overwriteInterior handles typing over an existing codepoint in
// overwrite mode. If the new codepoint's encoded length differs from
// the one it replaces, the buffer is resized in place and every later
// row start is shifted by the signed delta — re-derived here rather
// than transliterated, per spec.md §9's open question about the
// original's filler-byte sign convention.
func (s *Session) overwriteInterior(out *outputBatch, b []byte, l int) {
	oldLen := utf8Step(s.Buffer[s.Offset])
	if oldLen != l {
		delta := l - oldLen
		if delta > 0 {
			filler := make([]byte, delta)
			s.Buffer = append(s.Buffer[:s.Offset+oldLen], append(filler, s.Buffer[s.Offset+oldLen:]...)...)
		} else {
			s.Buffer = append(s.Buffer[:s.Offset+l], s.Buffer[s.Offset+oldLen:]...)
		}
		for i := s.PosY + 1; i < len(s.LineOffset); i++ {
			s.LineOffset[i] += delta
		}
	}
	copy(s.Buffer[s.Offset:s.Offset+l], b)
	out.bytes(b)
}
