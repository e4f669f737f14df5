package grid

// Row is one viewport/scrollback line: an ordered sequence of cells whose
// widths must sum to the grid's column count, plus a flag recording
// whether it was produced by an automatic line-wrap (as opposed to an
// explicit line feed), used by selection extraction (spec.md §4.1) and by
// resize's canonical-line rejoin algorithm.
type Row struct {
	Cells     []TerminalCharacter
	IsWrapped bool
}

// NewRow returns a row of cols blank cells.
func NewRow(cols int, styles CharacterStyles) Row {
	cells := make([]TerminalCharacter, cols)
	for i := range cells {
		cells[i] = BlankCharacter(styles)
	}
	return Row{Cells: cells}
}

// Width returns the number of columns this row currently occupies.
func (r Row) Width() int { return len(r.Cells) }

// Resize grows or shrinks the row in place to newWidth columns, padding
// with blanks or truncating. It does not rewrap; callers that need
// rewrapping use canonicalLine/splitIntoRows instead (see grid.go).
func (r *Row) Resize(newWidth int, styles CharacterStyles) {
	if newWidth <= len(r.Cells) {
		r.Cells = r.Cells[:newWidth]
		return
	}
	for len(r.Cells) < newWidth {
		r.Cells = append(r.Cells, BlankCharacter(styles))
	}
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	cells := make([]TerminalCharacter, len(r.Cells))
	copy(cells, r.Cells)
	return Row{Cells: cells, IsWrapped: r.IsWrapped}
}

// trimTrailingBlanks returns the row's cells with trailing default-styled
// space cells removed, used when joining wrapped fragments back into a
// canonical logical line for rewrap (spec.md §4.1 resize algorithm).
func (r Row) trimTrailingBlanks() []TerminalCharacter {
	end := len(r.Cells)
	for end > 0 {
		c := r.Cells[end-1]
		if c.Character != ' ' || c.Styles != (CharacterStyles{}) {
			break
		}
		end--
	}
	out := make([]TerminalCharacter, end)
	copy(out, r.Cells[:end])
	return out
}
