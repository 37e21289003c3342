package lineedit

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"golang.org/x/sys/unix"
)

type termState int

const (
	stateClosed termState = iota
	stateOpen
)

const (
	oscL = "\x1b]133;L\a"
	oscA = "\x1b]133;A\a"
	oscB = "\x1b]133;B\a"
	oscC = "\x1b]133;C\a"
)

// escTimeout bounds how long Read waits on epoll_wait before force-
// pulling the decoder, the Go equivalent of nrl.cc's the_loop calling
// termkey_getkey_force once epoll_wait times out: it gives a decoder
// holding a lone, ambiguous ESC byte a chance to decide it was really
// an Escape keypress rather than the start of an Alt+key sequence.
const escTimeout = 50 * time.Millisecond

// Session is one active line edit, bound to a terminal file descriptor.
type Session struct {
	fd    int
	flags Flags
	info  TermInfo
	class Classifier
	dec   KeyDecoder
	log   *log.Logger

	Buffer        []byte
	NChars        int
	LineOffset    []int
	Offset        int
	PosX, PosY    int
	RequestedPosX int
	InitialCol    int
	InitialRow    int
	TermCols      int
	TermRows      int
	PromptLen     int
	MaxLines      int
	CurFrameLines int
	Multiline     bool
	InsertMode    bool
	OSC133        bool

	EmptyMessage     string
	FrameHighlightFG Color

	textDefaultFG Color
	textDefaultBG Color
	hasTextColor  bool

	prompt Prompt

	termState  termState
	permClosed bool
	sigFD      int
	epFD       int
	externEPFD bool
	keyAdded   bool
	sigAdded   bool
	oldSigMask unix.Sigset_t
}

// New creates a Session bound to fd that owns its own epoll instance.
func New(fd int, flags Flags, info TermInfo, decoder KeyDecoder) *Session {
	return newSession(0, fd, flags, info, decoder, false)
}

// NewWithEpoll creates a Session bound to fd that registers its
// descriptors on the caller-owned epoll instance epfd instead of
// creating its own.
func NewWithEpoll(epfd, fd int, flags Flags, info TermInfo, decoder KeyDecoder) *Session {
	return newSession(epfd, fd, flags, info, decoder, true)
}

func newSession(epfd, fd int, flags Flags, info TermInfo, decoder KeyDecoder, extern bool) *Session {
	s := &Session{
		fd:         fd,
		flags:      flags,
		info:       info,
		class:      DefaultClassifier,
		dec:        decoder,
		log:        log.New(os.Stderr, "lineedit: ", 0),
		epFD:       epfd,
		externEPFD: extern,
		sigFD:      -1,
		InsertMode: true,
		Multiline:  true,
		LineOffset: []int{0},
		termState:  stateClosed,
	}
	s.FrameHighlightFG = info.DefaultForeground
	if flags == FlagsFrameBackground {
		fg, bg := adjustColor(info.DefaultForeground, info.DefaultBackground, 32)
		s.FrameHighlightFG = bg
		s.textDefaultFG = fg
		s.textDefaultBG = bg
		s.hasTextColor = true
	}
	return s
}

// SetClassifier overrides the Unicode word-class lookup used by
// backward-word/forward-word. Passing nil restores DefaultClassifier.
func (s *Session) SetClassifier(c Classifier) {
	if c == nil {
		c = DefaultClassifier
	}
	s.class = c
}

// SetLogger overrides where fatal host-error diagnostics are written.
func (s *Session) SetLogger(l *log.Logger) {
	if l != nil {
		s.log = l
	}
}

// SetPrompt installs the prompt evaluated at the start of each edit.
func (s *Session) SetPrompt(p Prompt) {
	s.prompt = p
}

func (s *Session) fatal(op string, err error) error {
	wrapped := fmt.Errorf("lineedit: %s failed: %w", op, err)
	s.log.Println(wrapped)
	return wrapped
}

// Prepare transitions the session from closed to open: it blocks
// SIGWINCH, opens a signalfd, registers the key descriptor and signalfd
// on epoll, emits the prompt and optional frame, and locates the cursor.
// It is idempotent: calling it again before the edit commits is a no-op.
func (s *Session) Prepare() error {
	if s.permClosed {
		return ErrClosed
	}
	if s.termState == stateOpen {
		return nil
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	old, err := blockWinch()
	if err != nil {
		return s.fatal("sigprocmask", err)
	}
	s.oldSigMask = old

	var mask unix.Sigset_t
	sigaddset(&mask, unix.SIGWINCH)
	sigfd, err := openSignalfd(&mask)
	if err != nil {
		restoreSigMask(old)
		return s.fatal("signalfd", err)
	}
	s.sigFD = sigfd

	s.TermCols, s.TermRows = winsizeOf(s.fd)

	if !s.externEPFD {
		epfd, err := epollCreate()
		if err != nil {
			unix.Close(sigfd)
			restoreSigMask(old)
			return s.fatal("epoll_create", err)
		}
		s.epFD = epfd
	}

	if err := epollAdd(s.epFD, s.fd); err != nil {
		s.teardownDescriptors()
		if err == unix.EPERM {
			return ErrNotATerminal
		}
		return s.fatal("epoll_ctl", err)
	}
	s.keyAdded = true

	if err := setNonblock(s.fd, true); err != nil {
		s.teardownDescriptors()
		return s.fatal("fcntl", err)
	}

	if err := epollAdd(s.epFD, s.sigFD); err != nil {
		s.teardownDescriptors()
		return s.fatal("epoll_ctl", err)
	}
	s.sigAdded = true

	s.emitPrologue()

	s.termState = stateOpen
	return nil
}

func (s *Session) teardownDescriptors() {
	if s.keyAdded {
		epollDel(s.epFD, s.fd)
		s.keyAdded = false
	}
	if s.sigAdded {
		epollDel(s.epFD, s.sigFD)
		s.sigAdded = false
	}
	if s.sigFD >= 0 {
		unix.Close(s.sigFD)
		s.sigFD = -1
	}
	if !s.externEPFD && s.epFD > 0 {
		unix.Close(s.epFD)
	}
	restoreSigMask(s.oldSigMask)
}

// emitPrologue draws the optional frame, locates the initial cursor
// position, and writes the prompt. See SPEC_FULL.md §10 for the frame
// rendering grounded on original_source/nrl.cc's the_loop.
func (s *Session) emitPrologue() {
	s.OSC133 = s.info.HasFeature(FeatureOSC133)

	var b outputBatch
	if s.OSC133 {
		b.str(oscL)
	} else {
		b.str("\r")
	}

	if s.flags != FlagsNone {
		s.writeFrameTop(&b)
		s.CurFrameLines = 1
		if s.hasTextColor {
			b.str(fmt.Sprintf("\x1b[38;2;%d;%d;%d;48;2;%d;%d;%dm",
				s.textDefaultFG.R, s.textDefaultFG.G, s.textDefaultFG.B,
				s.textDefaultBG.R, s.textDefaultBG.G, s.textDefaultBG.B))
		}
	} else {
		s.CurFrameLines = 0
	}
	b.flush(s.fd)

	s.InitialCol, s.InitialRow = queryCursorPos(s.fd)
	if s.InitialCol == 0 {
		s.InitialCol, s.InitialRow = 1, 1
	}
	if s.InitialCol != 1 {
		panic("lineedit: terminal reported a non-1 initial column")
	}

	s.Offset = 0
	s.NChars = 0
	s.PosX = 0
	s.PosY = 0
	s.LineOffset = []int{0}
	s.MaxLines = 1
	s.PromptLen = 0

	var prompt string
	if s.prompt != nil {
		prompt = s.prompt.Text()
	}
	s.PromptLen = visibleLenIgnoringCSI(prompt)

	var b2 outputBatch
	if prompt != "" {
		if s.OSC133 {
			b2.str(oscA)
		}
		b2.str(prompt)
	}
	if s.OSC133 {
		b2.str(oscB)
	}
	s.PosX = s.PromptLen
	b2.str("\x1b[K")
	b2.flush(s.fd)

	if s.EmptyMessage != "" {
		fg, _ := adjustColor(s.info.DefaultForeground, s.info.DefaultBackground, 48)
		var b3 outputBatch
		b3.str(fmt.Sprintf("\x1b[38;2;%d;%d;%dm", fg.R, fg.G, fg.B))
		b3.str(s.EmptyMessage)
		b3.str("\x1b[0m")
		b3.moveTo(s, s.PosX, s.PosY)
		b3.flush(s.fd)
	}
}

func (s *Session) writeFrameTop(b *outputBatch) {
	glyph := "─"
	if s.flags == FlagsFrameBackground {
		glyph = "▄"
	}
	if s.FrameHighlightFG != s.info.DefaultForeground {
		b.str(fmt.Sprintf("\x1b[38;2;%d;%d;%dm", s.FrameHighlightFG.R, s.FrameHighlightFG.G, s.FrameHighlightFG.B))
	}
	for i := 0; i < s.TermCols; i++ {
		b.str(glyph)
	}
	b.str("\n\n")
	glyph = "─"
	if s.flags == FlagsFrameBackground {
		glyph = "▀"
	}
	for i := 0; i < s.TermCols; i++ {
		b.str(glyph)
	}
	if s.FrameHighlightFG != s.info.DefaultForeground {
		b.str("\x1b[0m")
	}
	b.str("\x1b[1F")
}

// Process consumes one readiness event from the caller's multiplexer.
// It returns (line, true, _) once the edit commits, (_, false, true) if
// the event belonged to this session but no line is ready yet, or
// (_, false, false) if ev.FD is not one of this session's descriptors.
func (s *Session) Process(ev Event) (line string, ready bool, handled bool) {
	if s.termState != stateOpen {
		return "", false, false
	}

	switch ev.FD {
	case s.fd:
		return s.processKeyReadable()
	case s.sigFD:
		drainSignalfd(s.sigFD)
		s.TermCols, s.TermRows = winsizeOf(s.fd)
		return "", false, true
	default:
		return "", false, false
	}
}

func (s *Session) processKeyReadable() (line string, ready bool, handled bool) {
	s.dec.AdviseReadable()
	for {
		key, ok := s.dec.Next()
		if !ok {
			if s.dec.EOF() {
				return s.commit(), true, true
			}
			return "", false, true
		}
		if done, out := s.handleKey(key); done {
			return out, true, true
		}
	}
}

// handleKey applies the cancel rule, then dispatches through the edit
// actions or the insertion path. done is true once the edit should
// return to the caller (commit or cancel).
func (s *Session) handleKey(key Key) (done bool, line string) {
	if key.Type == KeyUnicode && key.Mod == ModCtrl {
		cp := key.Codepoint
		if cp == 'c' || cp == 'C' || (len(s.Buffer) == 0 && (cp == 'd' || cp == 'D')) {
			return true, s.cancel()
		}
	}

	if key.Type == KeyUnicode && key.Mod&(ModAlt|ModCtrl) == 0 {
		s.insertRune(key.Codepoint)
		return false, ""
	}

	if action, ok := lookupAction(key); ok {
		if action(s) {
			return true, s.commit()
		}
	}
	return false, ""
}

// forcePull drives the blocking-with-timeout decoder pull used by the
// Read loop when epoll_wait times out with an ambiguous escape
// sequence still pending. It reports a committed line the same way
// processKeyReadable does.
func (s *Session) forcePull(timeout time.Duration) (line string, ready bool) {
	key, ok := s.dec.ForcePull(timeout)
	if !ok {
		return "", false
	}
	if done, out := s.handleKey(key); done {
		return out, true
	}
	return "", false
}

func (s *Session) commit() string {
	line := string(s.Buffer)
	s.finalize()
	return line
}

func (s *Session) cancel() string {
	s.finalize()
	return ""
}

// finalize undoes frame highlighting if needed, parks the cursor past
// the last row, resets SGR if a text color was active, emits the OSC
// 133;C end marker, deregisters this session's descriptors, and
// restores the prior signal mask.
func (s *Session) finalize() {
	var b outputBatch
	if s.flags == FlagsFrameLine && s.FrameHighlightFG != s.info.DefaultForeground {
		frame := ""
		for i := 0; i < s.TermCols; i++ {
			frame += "─"
		}
		b.moveTo(s, 0, -1)
		b.str(frame)
		b.moveTo(s, 0, len(s.LineOffset))
		b.str(frame)
	}
	b.moveTo(s, s.TermCols-1, len(s.LineOffset)-1+s.CurFrameLines)
	b.str("\n")
	if s.hasTextColor {
		b.str("\x1b[m")
	}
	if s.OSC133 {
		b.str(oscC)
	}
	b.flush(s.fd)

	if s.keyAdded {
		epollDel(s.epFD, s.fd)
		s.keyAdded = false
	}
	if s.sigAdded {
		epollDel(s.epFD, s.sigFD)
		s.sigAdded = false
	}
	if s.sigFD >= 0 {
		unix.Close(s.sigFD)
		s.sigFD = -1
	}
	if !s.externEPFD && s.epFD > 0 {
		unix.Close(s.epFD)
	}
	restoreSigMask(s.oldSigMask)

	s.termState = stateClosed
	s.Buffer = s.Buffer[:0]
}

// Read drives its own epoll_wait loop (creating one if the session was
// not constructed with NewWithEpoll), calling Prepare once, and returns
// the first line Process reports as ready. Each wait is bounded by
// escTimeout so a lone ambiguous ESC byte gets force-pulled instead of
// blocking forever on the byte that would disambiguate it.
func (s *Session) Read() (string, error) {
	if err := s.Prepare(); err != nil {
		return "", err
	}

	for {
		fd, ok, err := epollWaitOne(s.epFD, forcePullTimeoutMs(escTimeout))
		if err != nil {
			return "", s.fatal("epoll_wait", err)
		}
		if !ok {
			if line, ready := s.forcePull(escTimeout); ready {
				return line, nil
			}
			continue
		}
		line, ready, handled := s.Process(Event{FD: fd})
		if ready {
			return line, nil
		}
		if !handled {
			continue
		}
	}
}

// Close tears the session down if it was left open, mirroring the
// guarantee the original C++ destructor gives: cleanup runs on every
// exit path, including one the caller forgot to drive to completion.
// Unlike a commit or cancel, Close also marks the Session as done for
// good: a later Prepare or Read returns ErrClosed instead of silently
// reopening it.
func (s *Session) Close() error {
	if s.termState == stateOpen {
		s.finalize()
	}
	s.permClosed = true
	return nil
}
