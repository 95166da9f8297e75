package engine

import (
	"sync/atomic"

	"github.com/hailam/chessplay/internal/board"
)

// PVTable stores the principal variation line found at each ply.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs the alpha-beta negamax search rooted at a single
// position. One Searcher is reused across the depths of an iterative
// deepening pass so the transposition table persists; the node count is
// reset by every Search call.
type Searcher struct {
	pos *board.Position
	tt  *TranspositionTable

	nodes    uint64
	stopFlag *atomic.Bool

	pv PVTable

	undoStack     [MaxPly]board.UndoInfo
	nullUndoStack [MaxPly]board.NullMoveUndo

	// rootPreferred is the move-ordering hint at ply 0 when the transposition
	// table has no entry yet for the root: the previous iterative-deepening
	// iteration's best move.
	rootPreferred board.Move
}

// NewSearcher creates a Searcher sharing tt and a stop flag owned by the
// iterative-deepening driver.
func NewSearcher(tt *TranspositionTable, stopFlag *atomic.Bool) *Searcher {
	return &Searcher{tt: tt, stopFlag: stopFlag}
}

// Nodes returns the number of nodes visited by the most recent Search call.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Search runs negamax to a fixed depth from pos and returns the best move
// and its score. rootPreferred seeds move ordering at the root when the
// transposition table has no hint yet (normally the prior iteration's best
// move). A depth-0 or negative depth still runs quiescence from the root so
// the returned score is never a raw static evaluation.
func (s *Searcher) Search(pos *board.Position, depth int, rootPreferred board.Move) (board.Move, Score) {
	s.pos = pos
	s.nodes = 0
	s.rootPreferred = rootPreferred

	score := s.negamax(depth, 0, -Inf, Inf)

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}
	return bestMove, score
}

// GetPV returns the principal variation from the last Search call.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

func (s *Searcher) stopped() bool {
	return s.nodes&2047 == 0 && s.stopFlag.Load()
}

// negamax implements fail-hard alpha-beta negamax with a transposition
// table, null-move pruning, and late-move reduction, all from the side to
// move's perspective. Step numbering in comments follows the search
// contract this implements.
func (s *Searcher) negamax(depth, ply int, alpha, beta Score) Score {
	pos := s.pos

	// 1. Hash probe.
	probe := s.tt.Probe(pos.ZobristHash(), depth, alpha, beta)
	if probe.IsCutoff() {
		return AdjustScoreFromTT(probe.Value, ply)
	}
	var ttMove board.Move
	if probe.IsHint() {
		ttMove = probe.Move
	} else if ply == 0 {
		ttMove = s.rootPreferred
	}

	// 2. Node accounting.
	s.nodes++
	s.pv.length[ply] = ply

	// 3. Horizon / termination: depth exhausted, position terminal, or the
	// stop flag observed. All three fall through to quiescence so a leaf is
	// never a raw static evaluation while captures remain.
	if depth <= 0 || pos.GameOver() || s.stopped() {
		v := s.quiesce(ply, alpha, beta)
		s.tt.Store(pos.ZobristHash(), depth, AdjustScoreToTT(v, ply), Exact, board.NoMove)
		return v
	}

	inCheck := pos.InCheck()

	// 4. Null-move pruning: pass the turn and search at a fixed reduction.
	// Skipped at the root, which must always surface a concrete move.
	if ply > 0 && depth >= 3 && !inCheck {
		if undo, ok := pos.TryPassTurn(); ok {
			s.nullUndoStack[ply] = undo
			score := -s.negamax(depth-3, ply+1, -beta, -beta+1)
			pos.UnmakeNullMove(undo)
			if s.stopFlag.Load() {
				return 0
			}
			if score >= beta {
				return beta
			}
		}
	}

	// 5. Move generation and ordering.
	moves := pos.GenerateLegalMoves()
	scores := ScoreMoves(pos, moves, ttMove)

	bestMove := board.NoMove
	bound := UpperBound

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		quiet := !move.IsCapture(pos) && !move.IsPromotion()

		s.undoStack[ply] = pos.MakeMove(move)
		if !s.undoStack[ply].Valid {
			continue
		}

		childInCheck := pos.InCheck()

		var score Score
		if i >= 4 && depth >= 3 && quiet && !childInCheck {
			score = -s.negamax(depth-2, ply+1, -alpha-1, -alpha)
			if score > alpha {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		} else {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		}

		pos.UnmakeMove(move, s.undoStack[ply])

		if s.stopFlag.Load() {
			return 0
		}

		if score >= beta {
			s.tt.Store(pos.ZobristHash(), depth, AdjustScoreToTT(beta, ply), LowerBound, move)
			return beta
		}

		if score > alpha {
			alpha = score
			bestMove = move
			bound = Exact

			s.pv.moves[ply][ply] = move
			copy(s.pv.moves[ply][ply+1:s.pv.length[ply+1]], s.pv.moves[ply+1][ply+1:s.pv.length[ply+1]])
			s.pv.length[ply] = s.pv.length[ply+1]
		}
	}

	s.tt.Store(pos.ZobristHash(), depth, AdjustScoreToTT(alpha, ply), bound, bestMove)
	return alpha
}

// quiesce extends the search along captures only, past the nominal horizon,
// so a position is never evaluated statically while a hanging piece sits on
// the board.
func (s *Searcher) quiesce(ply int, alpha, beta Score) Score {
	s.nodes++

	if s.stopped() {
		return 0
	}

	pos := s.pos
	standPat := Evaluate(pos)
	// A checkmated side's -Mate is made ply-relative, so a nearer mate scores
	// further from zero and AdjustScoreToTT/AdjustScoreFromTT apply to it.
	if standPat == -Mate {
		standPat += Score(ply)
	}

	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	moves := pos.GenerateCaptures()
	scores := ScoreCapturesMVVLVA(pos, moves)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)
		if !move.IsCapture(pos) {
			continue
		}

		undo := pos.MakeMove(move)
		if !undo.Valid {
			continue
		}

		score := -s.quiesce(ply+1, -beta, -alpha)

		pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	return alpha
}
