package engine

import "github.com/hailam/chessplay/internal/board"

// Piece values in centipawns, carried over unmodified from the teacher's
// classical evaluator.
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900
	KingValue   = 20000
)

// baseValue is the fixed table §4.3 of the move orderer and the evaluator
// both key off: pawn, knight, bishop, rook, queen, king, (none).
var baseValue = [7]int{PawnValue, KnightValue, BishopValue, RookValue, QueenValue, KingValue, 0}

// phaseWeight accumulates the game-phase scalar: knight=1, bishop=1, rook=2,
// queen=4, pawn=0, king=0.
var phaseWeight = [7]int{0, 1, 1, 2, 4, 0, 0}

const maxPhase = 24

// pstMG/pstEG hold, per piece role, a 64-entry table written from White's
// perspective with the piece's base value folded in at init time so that a
// per-square evaluation read is a single array lookup. Every role except
// the king reuses the teacher's single positional table for both the
// mid-game and end-game entry — the teacher (and the original Rust
// evaluator it descends from) only tapers the king's table by game phase,
// leaving pawn/knight/bishop/rook/queen placement bonuses phase-invariant.
var pstMG, pstEG [6][64]int

// Raw placement bonuses (no material folded in yet), taken verbatim from
// the teacher's PSTs.
var (
	pawnPST = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		50, 50, 50, 50, 50, 50, 50, 50,
		10, 10, 20, 30, 30, 20, 10, 10,
		5, 5, 10, 25, 25, 10, 5, 5,
		0, 0, 0, 20, 20, 0, 0, 0,
		5, -5, -10, 0, 0, -10, -5, 5,
		5, 10, 10, -20, -20, 10, 10, 5,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	knightPST = [64]int{
		-50, -40, -30, -30, -30, -30, -40, -50,
		-40, -20, 0, 0, 0, 0, -20, -40,
		-30, 0, 10, 15, 15, 10, 0, -30,
		-30, 5, 15, 20, 20, 15, 5, -30,
		-30, 0, 15, 20, 20, 15, 0, -30,
		-30, 5, 10, 15, 15, 10, 5, -30,
		-40, -20, 0, 5, 5, 0, -20, -40,
		-50, -40, -30, -30, -30, -30, -40, -50,
	}
	bishopPST = [64]int{
		-20, -10, -10, -10, -10, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 10, 10, 5, 0, -10,
		-10, 5, 5, 10, 10, 5, 5, -10,
		-10, 0, 10, 10, 10, 10, 0, -10,
		-10, 10, 10, 10, 10, 10, 10, -10,
		-10, 5, 0, 0, 0, 0, 5, -10,
		-20, -10, -10, -10, -10, -10, -10, -20,
	}
	rookPST = [64]int{
		0, 0, 0, 0, 0, 0, 0, 0,
		5, 10, 10, 10, 10, 10, 10, 5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		-5, 0, 0, 0, 0, 0, 0, -5,
		0, 0, 0, 5, 5, 0, 0, 0,
	}
	queenPST = [64]int{
		-20, -10, -10, -5, -5, -10, -10, -20,
		-10, 0, 0, 0, 0, 0, 0, -10,
		-10, 0, 5, 5, 5, 5, 0, -10,
		-5, 0, 5, 5, 5, 5, 0, -5,
		0, 0, 5, 5, 5, 5, 0, -5,
		-10, 5, 5, 5, 5, 5, 0, -10,
		-10, 0, 5, 0, 0, 0, 0, -10,
		-20, -10, -10, -5, -5, -10, -10, -20,
	}
	kingMidgamePST = [64]int{
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-30, -40, -40, -50, -50, -40, -40, -30,
		-20, -30, -30, -40, -40, -30, -30, -20,
		-10, -20, -20, -20, -20, -20, -20, -10,
		20, 20, 0, 0, 0, 0, 20, 20,
		20, 30, 10, 0, 0, 10, 30, 20,
	}
	kingEndgamePST = [64]int{
		-50, -40, -30, -20, -20, -30, -40, -50,
		-30, -20, -10, 0, 0, -10, -20, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 30, 40, 40, 30, -10, -30,
		-30, -10, 20, 30, 30, 20, -10, -30,
		-30, -30, 0, 0, 0, 0, -30, -30,
		-50, -30, -30, -30, -30, -30, -30, -50,
	}
)

func init() {
	rawMG := [6][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST, kingMidgamePST}
	rawEG := [6][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST, kingEndgamePST}
	for pt := board.Pawn; pt <= board.King; pt++ {
		for sq := 0; sq < 64; sq++ {
			pstMG[pt][sq] = baseValue[pt] + rawMG[pt][sq]
			pstEG[pt][sq] = baseValue[pt] + rawEG[pt][sq]
		}
	}
}

// Evaluate returns the static evaluation of a non-terminal position from
// the side-to-move's perspective: material plus a phase-tapered
// piece-square-table placement score. Pure function of the position; no
// hidden state.
func Evaluate(pos *board.Position) Score {
	if pos.GameOver() {
		return terminalScore(pos)
	}

	var mg, eg [2]int
	phase := 0

	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			bb := pos.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				pstSq := sq
				if c == board.Black {
					pstSq = sq.Mirror()
				}
				mg[c] += pstMG[pt][pstSq]
				eg[c] += pstEG[pt][pstSq]
				phase += phaseWeight[pt]
			}
		}
	}
	if phase > maxPhase {
		phase = maxPhase
	}

	stm := pos.SideToMove
	opp := stm.Other()
	mgScore := mg[stm] - mg[opp]
	egScore := eg[stm] - eg[opp]

	return Score((mgScore*phase + egScore*(maxPhase-phase)) / maxPhase)
}

// terminalScore handles the Evaluator's terminal branch: -Mate if the side
// to move has been checkmated, 0 for stalemate or any rules-draw. +Mate
// (the side to move as decisive winner) cannot occur under normal rules at
// a terminal node and is intentionally unreachable here.
func terminalScore(pos *board.Position) Score {
	if pos.IsCheckmate() {
		return -Mate
	}
	return 0
}
