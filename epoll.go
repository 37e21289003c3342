package lineedit

import (
	"fmt"
	"strconv"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// winsizeOf queries TIOCGWINSZ on fd, falling back to 80x25 on failure
// per spec.md §7's "window-size query failure" recovery rule.
func winsizeOf(fd int) (cols, rows int) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 80, 25
	}
	return int(ws.Col), int(ws.Row)
}

// blockWinch blocks SIGWINCH for the calling OS thread and returns the
// previous mask so it can be restored later. Prepare pins the calling
// goroutine to its OS thread for the duration of this call with
// runtime.LockOSThread; see DESIGN.md for the caveat this implies for
// callers that fork goroutines onto other OS threads before Prepare.
func blockWinch() (unix.Sigset_t, error) {
	var mask, old unix.Sigset_t
	sigaddset(&mask, unix.SIGWINCH)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, &old); err != nil {
		return old, fmt.Errorf("sigprocmask: %w", err)
	}
	return old, nil
}

func restoreSigMask(old unix.Sigset_t) error {
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil); err != nil {
		return fmt.Errorf("sigprocmask: %w", err)
	}
	return nil
}

// sigaddset sets the bit for sig in mask. golang.org/x/sys/unix exposes
// Sigset_t as a fixed-size array of words; SIGWINCH is always well
// within the first word on every Linux architecture.
func sigaddset(mask *unix.Sigset_t, sig unix.Signal) {
	mask.Val[(sig-1)/32] |= 1 << (uint(sig-1) % 32)
}

func openSignalfd(mask *unix.Sigset_t) (int, error) {
	fd, err := unix.Signalfd(-1, mask, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("signalfd: %w", err)
	}
	return fd, nil
}

func epollCreate() (int, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return -1, fmt.Errorf("epoll_create: %w", err)
	}
	return fd, nil
}

// epollAdd registers fd for EPOLLIN|EPOLLERR readiness on epfd.
// unix.EPERM is returned verbatim so callers can distinguish "not a
// terminal" from a genuine fatal epoll_ctl failure.
func epollAdd(epfd, fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLERR, Fd: int32(fd)}
	return unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

func epollDel(epfd, fd int) error {
	return unix.EpollCtl(epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// epollWaitOne blocks (if timeoutMs < 0, indefinitely) for a single
// readiness event and returns the ready descriptor.
func epollWaitOne(epfd int, timeoutMs int) (fd int, ok bool, err error) {
	var events [1]unix.EpollEvent
	for {
		n, err := unix.EpollWait(epfd, events[:], timeoutMs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("epoll_wait: %w", err)
		}
		if n == 0 {
			return 0, false, nil
		}
		return int(events[0].Fd), true, nil
	}
}

func setNonblock(fd int, nonblocking bool) error {
	if err := unix.SetNonblock(fd, nonblocking); err != nil {
		return fmt.Errorf("fcntl: %w", err)
	}
	return nil
}

// queryCursorPos writes a DSR (ESC[6n) request and synchronously parses
// the ESC[<row>;<col>R reply, temporarily clearing O_NONBLOCK on fd for
// the duration of the read. On any failure it returns (0, 0), which the
// caller treats as the origin (column 1, row 1).
func queryCursorPos(fd int) (col, row int) {
	const dsr = "\x1b[6n"
	if err := writeAll(fd, []byte(dsr)); err != nil {
		return 0, 0
	}

	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return 0, 0
	}
	unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags&^unix.O_NONBLOCK)
	defer unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags)

	buf := make([]byte, 256)
	for {
		n, err := unix.Read(fd, buf)
		if n <= 0 || err != nil {
			return 0, 0
		}
		if c, r, ok := parseDSRReply(buf[:n]); ok {
			return c, r
		}
	}
}

func parseDSRReply(b []byte) (col, row int, ok bool) {
	for i := 0; i+5 <= len(b); i++ {
		if b[i] != 0x1b || b[i+1] != '[' || b[i+2] < '0' || b[i+2] > '9' {
			continue
		}
		j := i + 2
		rowDigits := j
		for j < len(b) && b[j] >= '0' && b[j] <= '9' {
			j++
		}
		if j >= len(b) || b[j] != ';' {
			continue
		}
		r, err := strconv.Atoi(string(b[rowDigits:j]))
		if err != nil {
			continue
		}
		j++
		colDigits := j
		for j < len(b) && b[j] >= '0' && b[j] <= '9' {
			j++
		}
		if j >= len(b) || b[j] != 'R' || colDigits == j {
			continue
		}
		c, err := strconv.Atoi(string(b[colDigits:j]))
		if err != nil {
			continue
		}
		return c, r, true
	}
	return 0, 0, false
}

// signalfdSiginfoSize is sizeof(struct signalfd_siginfo) on Linux; the
// kernel always returns a record of exactly this size for a readable
// signalfd.
const signalfdSiginfoSize = int(unsafe.Sizeof(unix.SignalfdSiginfo{}))

// drainSignalfd consumes one signalfd_siginfo record; its contents are
// not otherwise used, the arrival itself is the signal.
func drainSignalfd(fd int) error {
	b := make([]byte, signalfdSiginfoSize)
	_, err := unix.Read(fd, b)
	return err
}

// writeAll writes b to fd in full, looping past short writes.
func writeAll(fd int, b []byte) error {
	for len(b) > 0 {
		n, err := unix.Write(fd, b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// writev submits parts as a single vectored write so a redraw that
// combines text, padding, clear sequences, and a cursor reposition never
// reaches the terminal as separate, independently-flushed writes (which
// would flash intermediate state).
func writev(fd int, parts ...[]byte) error {
	iovs := make([][]byte, 0, len(parts))
	for _, p := range parts {
		if len(p) == 0 {
			continue
		}
		iovs = append(iovs, p)
	}
	if len(iovs) == 0 {
		return nil
	}
	for {
		n, err := unix.Writev(fd, iovs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		total := 0
		for _, iov := range iovs {
			total += len(iov)
		}
		if n >= total {
			return nil
		}
		// Short vectored write: drop fully-written iovecs and shrink the
		// partially written one, then retry.
		for n > 0 {
			if n < len(iovs[0]) {
				iovs[0] = iovs[0][n:]
				n = 0
			} else {
				n -= len(iovs[0])
				iovs = iovs[1:]
			}
		}
	}
}

// forcePullTimeoutMs converts a time.Duration to the millisecond timeout
// epoll_wait expects. Whole milliseconds are truncated, but a positive
// duration under 1ms becomes 1 so it never collapses to "return
// immediately".
func forcePullTimeoutMs(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	return int(ms)
}
