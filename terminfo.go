package lineedit

import (
	"os"
	"strconv"
	"strings"
)

// DetectTermInfo builds a best-effort TermInfo from environment hints.
// It is a reference implementation of the "terminal capability
// detection" collaborator spec.md places out of scope for the core: a
// real host application is free to replace it with OSC 10/11 color
// queries or a terminfo database lookup. It reads COLORFGBG (the
// "foreground;background" 16-color-palette-index convention some
// terminals export, grounded on other_examples/ekain-fr-h2__main.go)
// and treats $TERM_PROGRAM / a COLORTERM of "truecolor" as evidence the
// terminal understands OSC 133 semantic prompt markers.
func DetectTermInfo() TermInfo {
	info := TermInfo{
		DefaultForeground: Color{R: 229, G: 229, B: 229},
		DefaultBackground: Color{R: 0, G: 0, B: 0},
	}

	if fgbg := os.Getenv("COLORFGBG"); fgbg != "" {
		parts := strings.Split(fgbg, ";")
		if len(parts) == 2 {
			if fg, ok := ansi16(parts[0]); ok {
				info.DefaultForeground = fg
			}
			if bg, ok := ansi16(parts[1]); ok {
				info.DefaultBackground = bg
			}
		}
	}

	if os.Getenv("TERM_PROGRAM") != "" || os.Getenv("COLORTERM") == "truecolor" {
		info.Features |= FeatureOSC133
	}

	return info
}

// ansi16 maps a COLORFGBG palette index (0-15) to an approximate RGB
// value using the standard ANSI 16-color palette.
func ansi16(s string) (Color, bool) {
	idx, err := strconv.Atoi(s)
	if err != nil || idx < 0 || idx > 15 {
		return Color{}, false
	}
	palette := [16]Color{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	return palette[idx], true
}
