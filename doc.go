// Package lineedit is an interactive single-line / wrap-to-multiline input
// editor for Unix terminals, comparable in role to a minimal readline.
//
// A Session is bound to a terminal file descriptor. The caller sets a
// prompt and repeatedly asks for the next finished input line, either by
// calling Read (which owns its own epoll loop) or by driving an externally
// owned multiplexer and calling Process for each readiness event. Between
// keystrokes the session keeps the on-screen rendering in sync with an
// internal UTF-8 buffer: cursor motion, insertion, overwrite, deletion,
// word navigation, line discard, and window resizing are all handled by
// emitting the minimal ANSI byte sequence needed to update the terminal.
//
// The Session consumes key decoding, terminal capability detection, and
// Unicode property lookups through the KeyDecoder interface, the TermInfo
// struct, and the Classifier interface, so a host application can supply
// its own. RawDecoder, DetectTermInfo, and DefaultClassifier are the
// package's reference implementations of these.
package lineedit
