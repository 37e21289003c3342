package lineedit

// recomputeLineOffsets rebuilds s.LineOffset from row r onward: it keeps
// rows [0, r] untouched, drops everything after, and re-wraps the buffer
// starting at LineOffset[r] into the session's current terminal width.
//
// Row 0 has avail = term_cols - prompt_len columns available (the prompt
// occupies the first prompt_len columns); every later row has the full
// term_cols available.
func (s *Session) recomputeLineOffsets(r int) {
	// pos_y can run one row ahead of line_offset's current length: the
	// last-column wrap quirk advances pos_y eagerly on the character that
	// fills a row, before line_offset gains the boundary that proves a
	// next row is actually needed. Clamping here just re-derives that
	// pending row from its real start instead of indexing past the end.
	if r >= len(s.LineOffset) {
		r = len(s.LineOffset) - 1
	}
	s.LineOffset = s.LineOffset[:r+1]

	avail := s.TermCols
	if r == 0 {
		avail -= s.PromptLen
	}

	o := s.LineOffset[r]
	for o < len(s.Buffer) {
		next, n := offsetAfterNChars(s.Buffer, o, avail)
		// A row that is exactly filled by the remaining buffer does not
		// yet get a boundary: the terminal itself won't wrap until a
		// character is written past column term_cols (the last-column
		// wrap quirk), so there is nothing past this row until a future
		// insert proves otherwise.
		if n < avail || next >= len(s.Buffer) {
			break
		}
		s.LineOffset = append(s.LineOffset, next)
		o = next
		avail = s.TermCols
	}
}
