package grid

import "h2/internal/linkhandler"

// ColorKind discriminates the three ways a terminal color can be expressed.
type ColorKind uint8

const (
	// ColorDefault is "no color set", i.e. the terminal's own default.
	ColorDefault ColorKind = iota
	// ColorNamed is one of the 16 classic ANSI colors.
	ColorNamed
	// ColorIndexed is one of the 256-color palette entries.
	ColorIndexed
	// ColorRGB is a 24-bit truecolor value.
	ColorRGB
)

// Color is a tagged union over the three color representations a Grid cell
// can carry.
type Color struct {
	Kind          ColorKind
	Named         uint8 // 0-15
	Indexed       uint8 // 0-255
	R, G, B       uint8
}

// NamedColor builds a 16-color ANSI Color.
func NamedColor(n uint8) Color { return Color{Kind: ColorNamed, Named: n} }

// IndexedColor builds a 256-color palette Color.
func IndexedColor(n uint8) Color { return Color{Kind: ColorIndexed, Indexed: n} }

// RGBColor builds a 24-bit truecolor Color.
func RGBColor(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }

// UnderlineStyle enumerates the SGR 4:x underline styles.
type UnderlineStyle uint8

const (
	UnderlineNone UnderlineStyle = iota
	UnderlineSingle
	UnderlineDouble
	UnderlineCurly
	UnderlineDotted
	UnderlineDashed
)

// CharacterStyles bundles every SGR attribute plus the pending OSC8 link
// anchor (spec.md §3.2).
type CharacterStyles struct {
	Fg, Bg          Color
	Bold            bool
	Italic          bool
	Underline       UnderlineStyle
	UnderlineColor  *Color
	Strikethrough   bool
	Dim             bool
	Blink           bool
	Reverse         bool
	Hidden          bool
	LinkAnchor      *linkhandler.Anchor
}

// Reset returns a CharacterStyles with every attribute cleared, the SGR 0
// state.
func Reset() CharacterStyles {
	return CharacterStyles{}
}

// TerminalCharacter is one grid cell: a codepoint, its display width, and
// the style it was printed with.
type TerminalCharacter struct {
	Character rune
	Width     int // 1 or 2; a width-2 cell is followed by a zero-width continuation slot
	Styles    CharacterStyles
}

// BlankCharacter returns a single space cell carrying the given styles,
// used to fill erased regions and wide-character counterpart slots.
func BlankCharacter(styles CharacterStyles) TerminalCharacter {
	return TerminalCharacter{Character: ' ', Width: 1, Styles: styles}
}

// SGRDiff is the exported form of sgrDiff, used by internal/output to emit
// minimal SGR transitions between cells pulled from different panes'
// CharacterStyles during compositing (spec.md §4.8).
func SGRDiff(prev, next CharacterStyles) (params []int, linkChanged bool) {
	return sgrDiff(prev, next)
}

// sgrDiff computes only the SGR parameters needed to transition from prev to
// next, plus whether an OSC8 transition occurred (spec.md §3.2).
func sgrDiff(prev, next CharacterStyles) (params []int, linkChanged bool) {
	if prev.Bold != next.Bold {
		if next.Bold {
			params = append(params, 1)
		} else {
			params = append(params, 22)
		}
	}
	if prev.Dim != next.Dim {
		if next.Dim {
			params = append(params, 2)
		} else {
			params = append(params, 22)
		}
	}
	if prev.Italic != next.Italic {
		if next.Italic {
			params = append(params, 3)
		} else {
			params = append(params, 23)
		}
	}
	if prev.Underline != next.Underline {
		if next.Underline == UnderlineNone {
			params = append(params, 24)
		} else {
			params = append(params, underlineSGR(next.Underline)...)
		}
	}
	if prev.Blink != next.Blink {
		if next.Blink {
			params = append(params, 5)
		} else {
			params = append(params, 25)
		}
	}
	if prev.Reverse != next.Reverse {
		if next.Reverse {
			params = append(params, 7)
		} else {
			params = append(params, 27)
		}
	}
	if prev.Hidden != next.Hidden {
		if next.Hidden {
			params = append(params, 8)
		} else {
			params = append(params, 28)
		}
	}
	if prev.Strikethrough != next.Strikethrough {
		if next.Strikethrough {
			params = append(params, 9)
		} else {
			params = append(params, 29)
		}
	}
	if prev.Fg != next.Fg {
		params = append(params, colorSGR(next.Fg, true)...)
	}
	if prev.Bg != next.Bg {
		params = append(params, colorSGR(next.Bg, false)...)
	}
	linkChanged = !linkAnchorEqual(prev.LinkAnchor, next.LinkAnchor)
	return params, linkChanged
}

func underlineSGR(u UnderlineStyle) []int {
	switch u {
	case UnderlineDouble:
		return []int{4, 2} // rendered by caller as "4:2"
	case UnderlineCurly:
		return []int{4, 3}
	case UnderlineDotted:
		return []int{4, 4}
	case UnderlineDashed:
		return []int{4, 5}
	default:
		return []int{4}
	}
}

func colorSGR(c Color, foreground bool) []int {
	base := 30
	if !foreground {
		base = 40
	}
	switch c.Kind {
	case ColorDefault:
		if foreground {
			return []int{39}
		}
		return []int{49}
	case ColorNamed:
		n := int(c.Named)
		if n < 8 {
			return []int{base + n}
		}
		return []int{base + 60 + (n - 8)}
	case ColorIndexed:
		return []int{base + 8, 5, int(c.Indexed)}
	case ColorRGB:
		return []int{base + 8, 2, int(c.R), int(c.G), int(c.B)}
	}
	return nil
}

func linkAnchorEqual(a, b *linkhandler.Anchor) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
