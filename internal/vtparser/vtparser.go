// Package vtparser owns the VT byte-stream decoder that drives a
// internal/grid.Grid. It is a thin adapter over go-ansicode's Decoder: the
// actual CSI/OSC/DCS dispatch lives on Grid, which implements
// ansicode.Handler directly (spec.md §3.1, §6.1 sink contract).
package vtparser

import "github.com/danielgatis/go-ansicode"

// Handler is ansicode.Handler itself (an alias, not a narrowed subset),
// the interface a Parser's Decoder dispatches to; internal/grid.Grid
// satisfies it.
type Handler = ansicode.Handler

// Parser decodes a byte stream and dispatches to a Handler (a Grid).
type Parser struct {
	dec *ansicode.Decoder
}

// New builds a Parser bound to the given handler.
func New(h Handler) *Parser {
	return &Parser{dec: ansicode.NewDecoder(h)}
}

// Feed pushes PTY output bytes through the decoder, triggering Handler
// callbacks synchronously. It never returns an error from malformed
// input; the decoder consumes what it can and resyncs on the next valid
// sequence, matching vte's recovery behavior.
func (p *Parser) Feed(data []byte) {
	_, _ = p.dec.Write(data)
}
