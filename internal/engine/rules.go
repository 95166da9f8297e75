package engine

import "github.com/hailam/chessplay/internal/board"

// RulesProvider is the collaborator the search consumes for everything
// game-rules related: legal move generation, make/unmake, terminal
// detection, and the Zobrist hash. The search core never re-derives any of
// this itself — it is "given," per the capability table this interface
// documents.
//
// *board.Position satisfies it directly; the interface exists so the
// dependency is explicit and testable, not so alternate implementations are
// expected.
type RulesProvider interface {
	GenerateLegalMoves() *board.MoveList
	GenerateCaptures() *board.MoveList
	MakeMove(m board.Move) board.UndoInfo
	UnmakeMove(m board.Move, undo board.UndoInfo)
	IsCheckmate() bool
	IsStalemate() bool
	IsDraw() bool
	SideToMoveColor() board.Color
	KingSquareFor(c board.Color) board.Square
	InCheck() bool
	TryPassTurn() (board.NullMoveUndo, bool)
	UnmakeNullMove(undo board.NullMoveUndo)
	AttackersByColor(sq board.Square, by board.Color, occupied board.Bitboard) board.Bitboard
	ZobristHash() uint64
	PieceAt(sq board.Square) board.Piece
}

var _ RulesProvider = (*board.Position)(nil)
