package engine

import "github.com/hailam/chessplay/internal/board"

// TTEntry is one slot of the transposition table: the depth it was
// searched to, the bound it represents, and the move that produced it.
type TTEntry struct {
	Key      uint32
	BestMove board.Move
	Score    int32
	Depth    int16
	Bound    BoundKind
	Age      uint8
}

// TranspositionTable maps a position hash to a TTEntry. Mutated only by the
// search goroutine that owns it; entries are best-effort hints and may be
// discarded or overwritten at any time without a correctness penalty.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64
	age     uint8

	hits   uint64
	probes uint64
}

// NewTranspositionTable allocates a table sized to approximately sizeMB
// megabytes, rounded down to a power of two entries for fast masking.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16
	n := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / entrySize)
	if n == 0 {
		n = 1
	}
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		mask:    n - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// ProbeResult is the tagged union §4.2 returns: a usable cutoff value, a
// hint move to try first, or a miss.
type ProbeResult struct {
	kind  probeKind
	Value Score
	Move  board.Move
}

type probeKind uint8

const (
	probeMiss probeKind = iota
	probeCutoff
	probeHint
)

func (r ProbeResult) IsCutoff() bool { return r.kind == probeCutoff }
func (r ProbeResult) IsHint() bool   { return r.kind == probeHint && r.Move != board.NoMove }
func (r ProbeResult) IsMiss() bool   { return r.kind == probeMiss }

// Probe looks up hash and, if an entry exists deep enough to answer the
// request at the given window, returns a cutoff value. Otherwise, if a
// best-move hint is available, it is returned for move ordering.
func (tt *TranspositionTable) Probe(hash uint64, depth int, alpha, beta Score) ProbeResult {
	tt.probes++

	idx := hash & tt.mask
	entry := tt.entries[idx]

	if entry.Key != uint32(hash>>32) || entry.Depth == 0 {
		return ProbeResult{kind: probeMiss}
	}

	tt.hits++

	if int(entry.Depth) >= depth {
		value := Score(entry.Score)
		switch entry.Bound {
		case Exact:
			return ProbeResult{kind: probeCutoff, Value: value}
		case UpperBound:
			if value <= alpha {
				return ProbeResult{kind: probeCutoff, Value: alpha}
			}
		case LowerBound:
			if value >= beta {
				return ProbeResult{kind: probeCutoff, Value: beta}
			}
		}
	}

	if entry.BestMove != board.NoMove {
		return ProbeResult{kind: probeHint, Move: entry.BestMove}
	}
	return ProbeResult{kind: probeMiss}
}

// Store records a search result. The replacement policy favors entries
// from the current search generation and greater-or-equal search depth;
// spec.md does not require any particular replacement strategy for
// correctness.
func (tt *TranspositionTable) Store(hash uint64, depth int, value Score, bound BoundKind, bestMove board.Move) {
	idx := hash & tt.mask
	entry := &tt.entries[idx]

	if entry.Age != tt.age || depth >= int(entry.Depth) {
		entry.Key = uint32(hash >> 32)
		entry.BestMove = bestMove
		entry.Score = int32(value)
		entry.Depth = int16(depth)
		entry.Bound = bound
		entry.Age = tt.age
	}
}

// NewSearch bumps the generation counter; called once per top-level go.
func (tt *TranspositionTable) NewSearch() { tt.age++ }

// Clear discards every entry, e.g. on ucinewgame.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull reports permille occupancy of a representative sample, for the
// UCI `info hashfull` field.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if uint64(sample) > uint64(len(tt.entries)) {
		sample = len(tt.entries)
	}
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == tt.age {
			used++
		}
	}
	if sample == 0 {
		return 0
	}
	return used * 1000 / sample
}

// AdjustScoreToTT converts a ply-relative mate score into a ply-independent
// one before storing it, so that a mate found deeper in one search isn't
// misread as a shallower mate when replayed from a shallower ply later.
func AdjustScoreToTT(score Score, ply int) Score {
	if score > Mate-Score(MaxPly) {
		return score + Score(ply)
	}
	if score < -Mate+Score(MaxPly) {
		return score - Score(ply)
	}
	return score
}

// AdjustScoreFromTT reverses AdjustScoreToTT when a stored value is read
// back at a given ply.
func AdjustScoreFromTT(score Score, ply int) Score {
	if score > Mate-Score(MaxPly) {
		return score - Score(ply)
	}
	if score < -Mate+Score(MaxPly) {
		return score + Score(ply)
	}
	return score
}
