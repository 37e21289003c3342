package lineedit

import "errors"

// ErrNotATerminal is returned by Prepare when the key file descriptor
// rejects epoll registration with EPERM, i.e. it is not a character
// device the decoder can drive.
var ErrNotATerminal = errors.New("lineedit: inappropriate ioctl for device")

// ErrClosed is returned by Prepare, and therefore by Read, once Close
// has been called on the Session: the teardown is meant to be final,
// unlike the termState flip a plain commit or cancel leaves behind,
// which a later Prepare/Read is free to reopen for the next line.
// Process has no error return in its signature (a cheap
// (line, ready, handled) result for a caller driving its own event loop),
// so it reports a closed Session the same way it reports any other
// event it isn't ready to act on: (false, false).
var ErrClosed = errors.New("lineedit: session is closed")
