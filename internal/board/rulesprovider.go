package board

// The methods in this file exist solely so *Position exposes the handful of
// state fields (SideToMove, KingSquare, Hash) as methods, satisfying
// consumer-defined collaborator interfaces (see engine.RulesProvider)
// without those consumers reaching into Position's fields directly.

// SideToMoveColor returns the color on move.
func (p *Position) SideToMoveColor() Color {
	return p.SideToMove
}

// KingSquareFor returns the cached king square for the given color.
func (p *Position) KingSquareFor(c Color) Square {
	return p.KingSquare[c]
}

// ZobristHash returns the incrementally-maintained Zobrist hash.
func (p *Position) ZobristHash() uint64 {
	return p.Hash
}
