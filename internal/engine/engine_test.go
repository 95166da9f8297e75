package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

func TestEvaluateStartPositionIsZero(t *testing.T) {
	pos := board.NewPosition()
	if v := Evaluate(pos); v != 0 {
		t.Errorf("Evaluate(start) = %d, want 0", v)
	}
}

func TestEvaluateMaterialAdvantageSign(t *testing.T) {
	white, err := board.ParseFEN("3k4/8/8/8/8/8/8/QQQKQQQQ w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if v := Evaluate(white); v <= 0 {
		t.Errorf("Evaluate(white to move, up material) = %d, want > 0", v)
	}

	black, err := board.ParseFEN("3k4/8/8/8/8/8/8/QQQKQQQQ b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if v := Evaluate(black); v >= 0 {
		t.Errorf("Evaluate(black to move, crushed) = %d, want < 0", v)
	}
}

func TestDriverReturnsLegalMove(t *testing.T) {
	pos := board.NewPosition()
	d := NewDriver(16)

	move, err := d.Search(pos, SearchLimits{MoveTime: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	legal := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == move {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Search returned %s, not among %d legal opening moves", move.String(), legal.Len())
	}
}

func TestDriverOnTerminalPositionIsNoLegalMoves(t *testing.T) {
	pos, err := board.ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	pos.UpdateCheckers()

	d := NewDriver(16)
	_, err = d.Search(pos, SearchLimits{Depth: 4})
	if err != ErrNoLegalMoves {
		t.Fatalf("Search on terminal position returned err=%v, want ErrNoLegalMoves", err)
	}
}

func TestDriverDepthOneAlwaysCompletes(t *testing.T) {
	pos := board.NewPosition()
	d := NewDriver(16)

	// An effectively-zero time budget must still force a complete depth-1
	// search rather than surface no move at all (spec.md §8 boundary
	// behavior).
	move, err := d.Search(pos, SearchLimits{MoveTime: time.Nanosecond})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if move == board.NoMove {
		t.Error("Search with a near-zero time budget returned no move; depth 1 must always complete")
	}
}

func TestKPKReturnsMoveAndWinningEvaluation(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/4P3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	d := NewDriver(16)
	move, err := d.Search(pos, SearchLimits{Depth: 6})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if move == board.NoMove {
		t.Fatal("Search returned no move on a won KPK position")
	}

	score := Evaluate(pos)
	if score < 50 {
		t.Errorf("static Evaluate(KPK, White to move) = %d, want >= 50", score)
	}
}

func TestRookEndgameEvaluation(t *testing.T) {
	pos, err := board.ParseFEN("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if v := Evaluate(pos); v <= 300 {
		t.Errorf("Evaluate(rook up) = %d, want > 300", v)
	}

	d := NewDriver(16)
	move, err := d.Search(pos, SearchLimits{Depth: 4})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	legal := pos.GenerateLegalMoves()
	found := false
	for i := 0; i < legal.Len(); i++ {
		if legal.Get(i) == move {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("bestmove %s is not a legal move in the rook endgame", move.String())
	}
}

func TestNegamaxDeterministicOnFreshTT(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3"

	pos1, _ := board.ParseFEN(fen)
	d1 := NewDriver(16)
	s1 := NewSearcher(d1.tt, &d1.stopFlag)
	_, score1 := s1.Search(pos1, 4, board.NoMove)

	pos2, _ := board.ParseFEN(fen)
	d2 := NewDriver(16)
	s2 := NewSearcher(d2.tt, &d2.stopFlag)
	_, score2 := s2.Search(pos2, 4, board.NoMove)

	if score1 != score2 {
		t.Errorf("negamax(depth=4) not deterministic on a fresh TT: %d vs %d", score1, score2)
	}
}

func TestQuiescenceTerminatesOnQuietPosition(t *testing.T) {
	pos := board.NewPosition()
	tt := NewTranspositionTable(1)
	var stop atomic.Bool
	s := NewSearcher(tt, &stop)

	s.pos = pos
	done := make(chan Score, 1)
	go func() { done <- s.quiesce(0, -Inf, Inf) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("quiesce did not terminate on the starting position")
	}
}
