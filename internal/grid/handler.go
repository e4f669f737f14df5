package grid

import (
	"fmt"
	"image/color"

	"github.com/danielgatis/go-ansicode"
	"github.com/mattn/go-runewidth"
)

// Handler is satisfied by *Grid: every CSI/OSC/DCS sequence the VT decoder
// (internal/vtparser) recognizes is dispatched here, grounded on
// go-headless-term's Terminal implementation of the same interface. This
// is spec.md §3.1's VT sink contract, expressed through go-ansicode's
// semantic method set rather than a raw Perform-trait-style callback.
var _ ansicode.Handler = (*Grid)(nil)

func (g *Grid) Backspace() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor.X > 0 {
		g.cursor.X--
		g.cursor.pendingWrap = false
	}
}

func (g *Grid) Bell() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ringBell = true
}

func (g *Grid) CarriageReturn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.X = 0
	g.cursor.pendingWrap = false
}

func (g *Grid) ClearLine(mode ansicode.LineClearMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.activeViewport()
	row := &v[g.cursor.Y]
	switch mode {
	case ansicode.LineClearModeRight:
		g.clearRange(row, g.cursor.X, g.cols)
	case ansicode.LineClearModeLeft:
		g.clearRange(row, 0, g.cursor.X+1)
	case ansicode.LineClearModeAll:
		g.clearRange(row, 0, g.cols)
	}
}

func (g *Grid) clearRange(row *Row, lo, hi int) {
	if hi > len(row.Cells) {
		hi = len(row.Cells)
	}
	for x := lo; x < hi; x++ {
		row.Cells[x] = BlankCharacter(g.cursor.PendingStyles)
	}
}

func (g *Grid) ClearScreen(mode ansicode.ClearMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.activeViewport()
	switch mode {
	case ansicode.ClearModeBelow:
		g.clearRange(&v[g.cursor.Y], g.cursor.X, g.cols)
		for y := g.cursor.Y + 1; y < len(v); y++ {
			g.clearRange(&v[y], 0, g.cols)
		}
	case ansicode.ClearModeAbove:
		for y := 0; y < g.cursor.Y; y++ {
			g.clearRange(&v[y], 0, g.cols)
		}
		g.clearRange(&v[g.cursor.Y], 0, g.cursor.X+1)
	case ansicode.ClearModeAll:
		for y := range v {
			g.clearRange(&v[y], 0, g.cols)
		}
	case ansicode.ClearModeSaved:
		g.linesAbove = nil
	}
}

func (g *Grid) ClearTabs(mode ansicode.TabulationClearMode) {
	// Tab stops are computed on the fly (every 8 columns); no per-grid
	// tab-stop table is maintained, so clearing is a no-op.
}

func (g *Grid) ClipboardLoad(clipboard byte, terminator string) {}

func (g *Grid) ClipboardStore(clipboard byte, data []byte) {}

func (g *Grid) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset) {
	g.mu.Lock()
	defer g.mu.Unlock()
	kind := CharsetASCII
	if charset == ansicode.CharsetSpecial {
		kind = CharsetLineDrawing
	}
	if index == ansicode.CharsetIndexG0 {
		g.charsets[0] = kind
	} else if index == ansicode.CharsetIndexG1 {
		g.charsets[1] = kind
	}
}

func (g *Grid) Decaln() {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.activeViewport()
	for y := range v {
		for x := range v[y].Cells {
			v[y].Cells[x] = TerminalCharacter{Character: 'E', Width: 1}
		}
	}
}

func (g *Grid) DeleteChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.activeViewport()
	row := &v[g.cursor.Y]
	x := g.cursor.X
	if x >= len(row.Cells) {
		return
	}
	copy(row.Cells[x:], row.Cells[min(x+n, len(row.Cells)):])
	for i := max(len(row.Cells)-n, x); i < len(row.Cells); i++ {
		row.Cells[i] = BlankCharacter(g.cursor.PendingStyles)
	}
}

func (g *Grid) DeleteLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollUpRegion(g.cursor.Y, g.scrollBottom, n)
}

func (g *Grid) DeviceStatus(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch n {
	case 5:
		g.queueReply([]byte("\x1b[0n"))
	case 6:
		g.queueReply([]byte(fmt.Sprintf("\x1b[%d;%dR", g.cursor.Y+1, g.cursor.X+1)))
	}
}

func (g *Grid) EraseChars(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.activeViewport()
	row := &v[g.cursor.Y]
	g.clearRange(row, g.cursor.X, g.cursor.X+n)
}

func (g *Grid) Goto(row, col int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.Y = clamp(row, 0, g.rows-1)
	g.cursor.X = clamp(col, 0, g.cols-1)
	g.cursor.pendingWrap = false
}

func (g *Grid) GotoCol(col int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.X = clamp(col, 0, g.cols-1)
	g.cursor.pendingWrap = false
}

func (g *Grid) GotoLine(row int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.Y = clamp(row, 0, g.rows-1)
}

func (g *Grid) HorizontalTabSet() {}

func (g *Grid) IdentifyTerminal(b byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queueReply([]byte("\x1b[?6c"))
}

// Input prints one decoded rune at the cursor, handling auto-wrap and
// double-width continuation cells (spec.md §3.1 print algorithm).
func (g *Grid) Input(r rune) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r = g.translate(r)
	width := runeWidth(r)
	wrapped := false
	if g.cursor.pendingWrap {
		g.lineFeed()
		g.cursor.X = 0
		g.cursor.pendingWrap = false
		wrapped = true
	}
	v := g.activeViewport()
	row := &v[g.cursor.Y]
	styles := g.cursor.PendingStyles
	styles.LinkAnchor = g.links.PendingLinkAnchor()
	if g.cursor.X+width > g.cols {
		g.lineFeed()
		g.cursor.X = 0
		v = g.activeViewport()
		row = &v[g.cursor.Y]
		wrapped = true
	}
	if wrapped {
		row.IsWrapped = true
	}
	row.Cells[g.cursor.X] = TerminalCharacter{Character: r, Width: width, Styles: styles}
	if width == 2 && g.cursor.X+1 < len(row.Cells) {
		row.Cells[g.cursor.X+1] = TerminalCharacter{Character: 0, Width: 0, Styles: styles}
	}
	g.cursor.X += width
	if g.cursor.X >= g.cols {
		g.cursor.X = g.cols - 1
		g.cursor.pendingWrap = true
	}
}

func (g *Grid) translate(r rune) rune {
	if g.charsets[g.activeCharset] == CharsetLineDrawing {
		if t, ok := lineDrawingTable[r]; ok {
			return t
		}
	}
	return r
}

var lineDrawingTable = map[rune]rune{
	'`': '◆', 'a': '▒', 'j': '┘', 'k': '┐',
	'l': '┌', 'm': '└', 'n': '┼', 'q': '─',
	't': '├', 'u': '┤', 'v': '┴', 'w': '┬',
	'x': '│',
}

// runeWidth reports a cell's display width (1 or 2), used to lay out wide
// CJK/emoji characters and their zero-width continuation slot.
func runeWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		return 1
	}
	if w > 2 {
		return 2
	}
	return w
}

func (g *Grid) InsertBlank(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.activeViewport()
	row := &v[g.cursor.Y]
	x := g.cursor.X
	if x >= len(row.Cells) {
		return
	}
	shiftTo := min(x+n, len(row.Cells))
	copy(row.Cells[shiftTo:], row.Cells[x:len(row.Cells)-(shiftTo-x)])
	for i := x; i < shiftTo; i++ {
		row.Cells[i] = BlankCharacter(g.cursor.PendingStyles)
	}
}

func (g *Grid) InsertBlankLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollDownRegion(g.cursor.Y, g.scrollBottom, n)
}

func (g *Grid) LineFeed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lineFeed()
}

// lineFeed advances the cursor one row, scrolling the active region when
// it sits on the bottom scroll margin (spec.md §3.1). Caller holds g.mu.
func (g *Grid) lineFeed() {
	if g.cursor.Y == g.scrollBottom {
		g.scrollUpRegion(g.scrollTop, g.scrollBottom, 1)
		return
	}
	if g.cursor.Y < g.rows-1 {
		g.cursor.Y++
	}
}

// scrollUpRegion shifts rows [top,bottom] up by n, pushing rows that fall
// off the top into scrollback (only when the region is the full screen
// and not the alternate buffer), and filling the bottom with blanks.
func (g *Grid) scrollUpRegion(top, bottom, n int) {
	v := g.activeViewport()
	if bottom >= len(v) {
		bottom = len(v) - 1
	}
	for i := 0; i < n; i++ {
		if top == 0 && top == g.scrollTop && bottom == g.scrollBottom {
			g.pushScrollback(v[top])
		}
		copy(v[top:bottom], v[top+1:bottom+1])
		v[bottom] = NewRow(g.cols, CharacterStyles{})
	}
	g.setActiveViewport(v)
}

// scrollDownRegion shifts rows [top,bottom] down by n, discarding rows
// that fall off the bottom and filling the top with blanks.
func (g *Grid) scrollDownRegion(top, bottom, n int) {
	v := g.activeViewport()
	if bottom >= len(v) {
		bottom = len(v) - 1
	}
	for i := 0; i < n; i++ {
		copy(v[top+1:bottom+1], v[top:bottom])
		v[top] = NewRow(g.cols, CharacterStyles{})
	}
	g.setActiveViewport(v)
}

func (g *Grid) MoveBackward(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.X = clamp(g.cursor.X-n, 0, g.cols-1)
	g.cursor.pendingWrap = false
}

func (g *Grid) MoveBackwardTabs(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		g.cursor.X = prevTabStop(g.cursor.X)
	}
}

func (g *Grid) MoveDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.Y = clamp(g.cursor.Y+n, 0, g.rows-1)
}

func (g *Grid) MoveDownCr(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.Y = clamp(g.cursor.Y+n, 0, g.rows-1)
	g.cursor.X = 0
}

func (g *Grid) MoveForward(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.X = clamp(g.cursor.X+n, 0, g.cols-1)
	g.cursor.pendingWrap = false
}

func (g *Grid) MoveForwardTabs(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		g.cursor.X = nextTabStop(g.cursor.X, g.cols)
	}
}

func nextTabStop(x, cols int) int {
	next := (x/8 + 1) * 8
	if next >= cols {
		return cols - 1
	}
	return next
}

func prevTabStop(x int) int {
	if x == 0 {
		return 0
	}
	return ((x - 1) / 8) * 8
}

func (g *Grid) MoveUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.Y = clamp(g.cursor.Y-n, 0, g.rows-1)
}

func (g *Grid) MoveUpCr(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.Y = clamp(g.cursor.Y-n, 0, g.rows-1)
	g.cursor.X = 0
}

func (g *Grid) PopKeyboardMode(n int) {}
func (g *Grid) PopTitle()             {}

func (g *Grid) PrivacyMessageReceived(data []byte) {}

func (g *Grid) PushKeyboardMode(mode ansicode.KeyboardMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.kittyKeyboard = true
}

func (g *Grid) PushTitle() {}

func (g *Grid) ReportKeyboardMode() {
	g.mu.Lock()
	defer g.mu.Unlock()
	mode := 0
	if g.kittyKeyboard {
		mode = 1
	}
	g.queueReply([]byte(fmt.Sprintf("\x1b[?%du", mode)))
}

func (g *Grid) ReportModifyOtherKeys() {}

func (g *Grid) ResetColor(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.colorCodes, i)
}

func (g *Grid) ResetState() {
	g.ResetTerminalState()
}

func (g *Grid) RestoreCursorPosition() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.savedCursor == nil {
		return
	}
	g.cursor.X, g.cursor.Y = g.savedCursor.X, g.savedCursor.Y
	g.cursor.PendingStyles = g.savedCursor.PendingStyles
	g.activeCharset = g.savedCursor.CharsetIndex
}

func (g *Grid) ReverseIndex() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor.Y == g.scrollTop {
		g.scrollDownRegion(g.scrollTop, g.scrollBottom, 1)
		return
	}
	if g.cursor.Y > 0 {
		g.cursor.Y--
	}
}

func (g *Grid) SaveCursorPosition() {
	g.mu.Lock()
	defer g.mu.Unlock()
	saved := SavedCursor{X: g.cursor.X, Y: g.cursor.Y, PendingStyles: g.cursor.PendingStyles, CharsetIndex: g.activeCharset}
	g.savedCursor = &saved
}

func (g *Grid) ScrollDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollDownRegion(g.scrollTop, g.scrollBottom, n)
}

func (g *Grid) ScrollUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollUpRegion(g.scrollTop, g.scrollBottom, n)
}

func (g *Grid) SetActiveCharset(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n == 0 || n == 1 {
		g.activeCharset = n
	}
}

func (g *Grid) SetColor(index int, c color.Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, gg, b, _ := c.RGBA()
	g.colorCodes[index] = RGBColor(uint8(r>>8), uint8(gg>>8), uint8(b>>8))
}

func (g *Grid) SetCursorStyle(style ansicode.CursorStyle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch style {
	case ansicode.CursorStyleBlinkingUnderline, ansicode.CursorStyleSteadyUnderline:
		g.cursor.Shape = CursorUnderline
	case ansicode.CursorStyleBlinkingBar, ansicode.CursorStyleSteadyBar:
		g.cursor.Shape = CursorBar
	default:
		g.cursor.Shape = CursorBlock
	}
}

func (g *Grid) SetDynamicColor(prefix string, index int, terminator string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.colorCodes[index]
	if !ok {
		return
	}
	g.queueReply([]byte(fmt.Sprintf("\x1b]%s;rgb:%02x/%02x/%02x%s", prefix, c.R, c.G, c.B, terminator)))
}

func (g *Grid) SetHyperlink(hyperlink *ansicode.Hyperlink) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if hyperlink == nil {
		g.links.DispatchOSC8(nil, nil)
		return
	}
	params := []byte("id=" + hyperlink.ID)
	g.links.DispatchOSC8(params, []byte(hyperlink.URI))
}

func (g *Grid) SetKeyboardMode(mode ansicode.KeyboardMode, behavior ansicode.KeyboardModeBehavior) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.kittyKeyboard = mode != 0
}

func (g *Grid) SetKeypadApplicationMode() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorKeyApp = true
}

func (g *Grid) SetMode(mode ansicode.TerminalMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applyMode(mode, true)
}

func (g *Grid) UnsetMode(mode ansicode.TerminalMode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.applyMode(mode, false)
}

// applyMode toggles the handful of DEC private/ANSI modes this emulator
// tracks (spec.md §4.1's mode table). Caller holds g.mu.
func (g *Grid) applyMode(mode ansicode.TerminalMode, set bool) {
	switch mode {
	case ansicode.TerminalModeShowCursor:
		g.cursor.Hidden = !set
	case ansicode.TerminalModeSwapScreenAndSetRestoreCursor:
		if set {
			g.mu.Unlock()
			g.EnterAltScreen()
			g.mu.Lock()
		} else {
			g.mu.Unlock()
			g.LeaveAltScreen()
			g.mu.Lock()
		}
	case ansicode.TerminalModeBracketedPaste:
		g.bracketedPaste = set
	case ansicode.TerminalModeReportMouseClicks:
		if set {
			g.mouseMode = MouseTrackingNormal
		} else if g.mouseMode == MouseTrackingNormal {
			g.mouseMode = MouseTrackingOff
		}
	case ansicode.TerminalModeReportCellMouseMotion:
		if set {
			g.mouseMode = MouseTrackingButtonEvent
		} else if g.mouseMode == MouseTrackingButtonEvent {
			g.mouseMode = MouseTrackingOff
		}
	case ansicode.TerminalModeReportAllMouseMotion:
		if set {
			g.mouseMode = MouseTrackingAnyEvent
		} else if g.mouseMode == MouseTrackingAnyEvent {
			g.mouseMode = MouseTrackingOff
		}
	case ansicode.TerminalModeCursorKeys:
		g.cursorKeyApp = set
	}
}

func (g *Grid) SetModifyOtherKeys(modify ansicode.ModifyOtherKeys) {}

func (g *Grid) SetScrollingRegion(top, bottom int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if top < 0 {
		top = 0
	}
	if bottom >= g.rows || bottom < top {
		bottom = g.rows - 1
	}
	g.scrollTop, g.scrollBottom = top, bottom
	g.cursor.X, g.cursor.Y = 0, top
}

func (g *Grid) StartOfStringReceived(data []byte) {}

func (g *Grid) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := &g.cursor.PendingStyles
	switch attr.Attr {
	case ansicode.CharAttributeReset:
		*s = CharacterStyles{}
	case ansicode.CharAttributeBold:
		s.Bold = true
	case ansicode.CharAttributeDim:
		s.Dim = true
	case ansicode.CharAttributeItalic:
		s.Italic = true
	case ansicode.CharAttributeUnderline:
		s.Underline = UnderlineSingle
	case ansicode.CharAttributeDoubleUnderline:
		s.Underline = UnderlineDouble
	case ansicode.CharAttributeCurlyUnderline:
		s.Underline = UnderlineCurly
	case ansicode.CharAttributeDottedUnderline:
		s.Underline = UnderlineDotted
	case ansicode.CharAttributeDashedUnderline:
		s.Underline = UnderlineDashed
	case ansicode.CharAttributeBlinkSlow, ansicode.CharAttributeBlinkFast:
		s.Blink = true
	case ansicode.CharAttributeReverse:
		s.Reverse = true
	case ansicode.CharAttributeHidden:
		s.Hidden = true
	case ansicode.CharAttributeStrike:
		s.Strikethrough = true
	case ansicode.CharAttributeCancelBold:
		s.Bold = false
	case ansicode.CharAttributeCancelBoldDim:
		s.Bold, s.Dim = false, false
	case ansicode.CharAttributeCancelItalic:
		s.Italic = false
	case ansicode.CharAttributeCancelUnderline:
		s.Underline = UnderlineNone
	case ansicode.CharAttributeCancelBlink:
		s.Blink = false
	case ansicode.CharAttributeCancelReverse:
		s.Reverse = false
	case ansicode.CharAttributeCancelHidden:
		s.Hidden = false
	case ansicode.CharAttributeCancelStrike:
		s.Strikethrough = false
	case ansicode.CharAttributeForeground:
		s.Fg = resolveAttrColor(attr)
	case ansicode.CharAttributeBackground:
		s.Bg = resolveAttrColor(attr)
	case ansicode.CharAttributeUnderlineColor:
		if attr.RGBColor == nil && attr.IndexedColor == nil && attr.NamedColor == nil {
			s.UnderlineColor = nil
		} else {
			c := resolveAttrColor(attr)
			s.UnderlineColor = &c
		}
	}
}

func resolveAttrColor(attr ansicode.TerminalCharAttribute) Color {
	switch {
	case attr.RGBColor != nil:
		return RGBColor(attr.RGBColor.R, attr.RGBColor.G, attr.RGBColor.B)
	case attr.IndexedColor != nil:
		return IndexedColor(uint8(attr.IndexedColor.Index))
	case attr.NamedColor != nil:
		return NamedColor(uint8(*attr.NamedColor))
	default:
		return Color{}
	}
}

func (g *Grid) SetTitle(title string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.title = title
}

func (g *Grid) Substitute() {}

func (g *Grid) Tab(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		g.cursor.X = nextTabStop(g.cursor.X, g.cols)
	}
}

func (g *Grid) TextAreaSizeChars() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queueReply([]byte(fmt.Sprintf("\x1b[8;%d;%dt", g.rows, g.cols)))
}

func (g *Grid) TextAreaSizePixels() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queueReply([]byte(fmt.Sprintf("\x1b[4;%d;%dt", g.rows*g.cellH, g.cols*g.cellW)))
}

func (g *Grid) UnsetKeypadApplicationMode() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursorKeyApp = false
}

func (g *Grid) SetWorkingDirectory(uri string) {}

func (g *Grid) CellSizePixels() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queueReply([]byte(fmt.Sprintf("\x1b[6;%d;%dt", g.cellH, g.cellW)))
}

// SixelReceived decodes a sixel image, stores it in the shared store and
// anchors it at the cursor (top-left under DECSDM); it writes no grid
// cells (spec.md §4.7).
func (g *Grid) SixelReceived(params [][]uint16, data []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	buf, ok := decodeSixel(params, data)
	if !ok || g.sixelStore == nil {
		return
	}
	id := g.sixelStore.Insert(buf)
	g.AnchorSixelImage(id)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
