package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// OrderScore computes a move's sort key from four additive rules: a large
// bonus for the preferred (TT hint) move, an MVV capture bonus scaled by the
// victim's base value, a promotion bonus scaled by the promoted piece's base
// value, and a penalty for moving into a square the opponent currently
// attacks. Among equal scores SortMoves/PickMove take the one that sits
// first in the list at the time of each pick; since every pick swaps two
// entries, that is not necessarily move-generation order.
func OrderScore(pos *board.Position, m board.Move, preferred board.Move) int {
	score := 0

	if preferred != board.NoMove && m == preferred {
		score += 10000
	}

	from := m.From()
	to := m.To()

	if m.IsCapture(pos) {
		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			victim = pos.PieceAt(to).Type()
		}
		score += 10 * baseValue[victim]
	}

	if m.IsPromotion() {
		score += baseValue[m.Promotion()]
	}

	mover := pos.PieceAt(from)
	opponent := mover.Color().Other()
	if pos.AttackersByColor(to, opponent, pos.AllOccupied) != 0 {
		score -= baseValue[mover.Type()]
	}

	return score
}

// ScoreCapturesMVVLVA scores the list GenerateCaptures produces for
// quiescence with the plain MVV-LVA formula
// `10 * base_value(captured) - base_value(attacker)`, distinct from
// OrderScore's 4-rule formula used by the main search's move ordering.
func ScoreCapturesMVVLVA(pos *board.Position, moves *board.MoveList) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)

		var victim board.PieceType
		if m.IsEnPassant() {
			victim = board.Pawn
		} else {
			victim = pos.PieceAt(m.To()).Type()
		}
		attacker := pos.PieceAt(m.From()).Type()

		scores[i] = 10*baseValue[victim] - baseValue[attacker]
	}
	return scores
}

// ScoreMoves assigns OrderScore to every move in the list, ordering toward
// preferred first.
func ScoreMoves(pos *board.Position, moves *board.MoveList, preferred board.Move) []int {
	scores := make([]int, moves.Len())
	for i := 0; i < moves.Len(); i++ {
		scores[i] = OrderScore(pos, moves.Get(i), preferred)
	}
	return scores
}

// SortMoves sorts moves by their scores (descending). A selection sort is
// sufficient at the branching factors chess search sees (~40 moves).
func SortMoves(moves *board.MoveList, scores []int) {
	n := moves.Len()
	for i := 0; i < n-1; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			moves.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// PickMove selects the best remaining move and moves it to position index,
// allowing lazy sorting: only as many comparisons as moves actually tried.
func PickMove(moves *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < moves.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		moves.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}
