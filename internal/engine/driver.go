package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
)

// SearchInfo is the progress snapshot the driver publishes after every
// completed depth: the depth just finished, the root score from the
// side-to-move's perspective, and the cumulative node count.
type SearchInfo struct {
	Depth    int
	Score    Score
	Nodes    uint64
	Time     time.Duration
	HashFull int // permille occupancy of the transposition table
}

// SearchLimits bounds a single top-level search. A zero value means "no
// limit of that kind" except MoveTime, whose zero value is resolved by the
// TimeManager's own fixed formula (spec.md §5).
type SearchLimits struct {
	Depth    int // 0 = no limit (bounded by MaxPly)
	MoveTime time.Duration
	Infinite bool // search until Stop is called, ignoring the clock formula
}

// Driver is the iterative-deepening controller (spec.md §4.6): it repeatedly
// re-enters negamax at increasing target depth, respecting a cooperative
// stop flag, and remembers the best move from the most recently completed
// depth. One Driver owns one TranspositionTable across the lifetime of a
// game; a Searcher is created fresh per Driver but reused across all depths
// of a single Search call so the TT persists within that call, and the
// driver sums the node counts of those depths.
type Driver struct {
	tt       *TranspositionTable
	stopFlag atomic.Bool
	searcher *Searcher

	// OnInfo, if set, is invoked after every completed depth.
	OnInfo func(SearchInfo)
}

// NewDriver creates a Driver owning a transposition table sized to
// approximately ttSizeMB megabytes. The table persists across Search calls
// within the same game; call Clear on ucinewgame.
func NewDriver(ttSizeMB int) *Driver {
	d := &Driver{tt: NewTranspositionTable(ttSizeMB)}
	d.searcher = NewSearcher(d.tt, &d.stopFlag)
	return d
}

// Stop requests cooperative termination of any in-flight Search call. The
// current node completes and its result is discarded at the root; it is
// not committed as an improvement over the last completed depth.
func (d *Driver) Stop() {
	d.stopFlag.Store(true)
}

// Clear discards the transposition table, e.g. on ucinewgame.
func (d *Driver) Clear() {
	d.tt.Clear()
}

// Evaluate returns the static evaluation of pos, bypassing search.
func (d *Driver) Evaluate(pos *board.Position) Score {
	return Evaluate(pos)
}

// Search runs iterative deepening on pos under limits and returns the best
// move found. pos must have at least one legal move; searching a terminal
// position is a programmer error (ErrNoLegalMoves), not a recoverable one —
// the caller (UCI glue) is expected to check game-over status before ever
// invoking Search.
func (d *Driver) Search(pos *board.Position, limits SearchLimits) (board.Move, error) {
	if pos.GameOver() {
		return board.NoMove, ErrNoLegalMoves
	}

	d.stopFlag.Store(false)
	d.tt.NewSearch()

	maxDepth := MaxPly
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}

	tm := NewTimeManager()
	tm.Init(UCILimits{MoveTime: limits.MoveTime, Infinite: limits.Infinite}, pos.SideToMove, 0)

	startTime := time.Now()
	var totalNodes uint64

	// Depth 1 runs with the stop flag freshly cleared above, so a stop
	// requested before Search began does not prevent it; it is bounded by
	// the legal-move count and is the fallback move a caller receives.
	// The timer is armed only after depth 1 finishes, so it can never
	// interrupt depth 1. Only a Stop call arriving while depth 1 is in
	// flight can cut it short, and that surfaces as ErrStopDuringDepthOne.
	bestMove, bestScore := d.searcher.Search(pos, 1, board.NoMove)
	totalNodes += d.searcher.Nodes()
	if bestMove == board.NoMove {
		return board.NoMove, ErrStopDuringDepthOne
	}
	d.reportProgress(1, bestScore, totalNodes, startTime)

	// The timer goroutine mirrors spec.md §5's dedicated timer thread: it
	// flips the shared stop flag once the think-time budget elapses,
	// independent of whatever node the search happens to be in. It is
	// stopped before Search returns so it never outlives the call or
	// races the next one.
	timer := time.AfterFunc(tm.MaximumTime(), func() { d.stopFlag.Store(true) })
	defer timer.Stop()

	for depth := 2; depth <= maxDepth; depth++ {
		if d.stopFlag.Load() || tm.ShouldStop() {
			break
		}

		move, score := d.searcher.Search(pos, depth, bestMove)
		totalNodes += d.searcher.Nodes()

		// A mid-flight stop discards this iteration's result entirely;
		// the prior completed depth's move is kept (spec.md §9 Open
		// Question: always fall back to the last completed iteration).
		if d.stopFlag.Load() {
			break
		}

		if move != board.NoMove {
			bestMove = move
			bestScore = score
		}
		d.reportProgress(depth, bestScore, totalNodes, startTime)

		if tm.ShouldStop() {
			break
		}
	}

	return bestMove, nil
}

func (d *Driver) reportProgress(depth int, score Score, nodes uint64, startTime time.Time) {
	if d.OnInfo == nil {
		return
	}
	d.OnInfo(SearchInfo{
		Depth:    depth,
		Score:    score,
		Nodes:    nodes,
		Time:     time.Since(startTime),
		HashFull: d.tt.HashFull(),
	})
}
