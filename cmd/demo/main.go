// Command demo is a thin driver for the lineedit package: it puts the
// controlling terminal into raw mode, opens a Session against it, and
// echoes each line the user enters until cancel or EOF.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/xyproto/lineedit"
)

func main() {
	var ttyPath string
	var prompt string
	var frame string

	root := &cobra.Command{
		Use:   "demo",
		Short: "Interactively read lines with lineedit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(ttyPath, prompt, frame)
		},
	}
	root.Flags().StringVar(&ttyPath, "tty", "/dev/tty", "terminal device to bind the session to")
	root.Flags().StringVar(&prompt, "prompt", "> ", "prompt text")
	root.Flags().StringVar(&frame, "frame", "none", "frame mode: none, line, or background")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ttyPath, prompt, frame string) error {
	f, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", ttyPath, err)
	}
	defer f.Close()
	fd := int(f.Fd())

	restore, err := enableRawMode(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer restore()

	flags := lineedit.FlagsNone
	switch frame {
	case "line":
		flags = lineedit.FlagsFrameLine
	case "background":
		flags = lineedit.FlagsFrameBackground
	}

	info := lineedit.DetectTermInfo()
	decoder := lineedit.NewRawDecoder(fd)
	sess := lineedit.New(fd, flags, info, decoder)
	sess.SetPrompt(lineedit.LiteralPrompt(prompt))
	defer sess.Close()

	for {
		line, err := sess.Read()
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}
		fmt.Fprintf(f, "\r\nyou said: %s\r\n", line)
	}
}

// enableRawMode puts fd into raw mode, returning a function that
// restores the terminal's previous termios.
func enableRawMode(fd int) (func(), error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 1

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}

	return func() {
		unix.IoctlSetTermios(fd, unix.TCSETS, orig)
	}, nil
}
