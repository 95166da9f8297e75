// Package uci implements the subset of the Universal Chess Interface
// protocol the search core needs to accept work and emit results: position
// setup, go/stop/quit, and the handful of setoption knobs spec.md's
// AMBIENT STACK calls for. Everything else (option negotiation beyond
// Hash/Telemetry, pondering, multi-PV) is out of scope per spec.md §1.
package uci

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/telemetry"
)

// UCI implements the Universal Chess Interface protocol loop.
type UCI struct {
	driver   *engine.Driver
	position *board.Position

	telemetry        *telemetry.Store
	telemetryEnabled bool

	searching     bool
	searchDone    chan struct{}
	stopRequested atomic.Bool
}

// New creates a UCI protocol handler driving the given search engine. store
// may be nil, in which case telemetry recording is silently skipped.
func New(driver *engine.Driver, store *telemetry.Store) *UCI {
	return &UCI{
		driver:           driver,
		position:         board.NewPosition(),
		telemetry:        store,
		telemetryEnabled: store != nil,
	}
}

// Run starts the UCI main loop, reading commands from stdin until "quit"
// or EOF.
func (u *UCI) Run() {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "uci":
			u.handleUCI()
		case "isready":
			fmt.Println("readyok")
		case "ucinewgame":
			u.handleNewGame()
		case "position":
			u.handlePosition(args)
		case "go":
			u.handleGo(args)
		case "stop":
			u.handleStop()
		case "quit":
			u.handleQuit()
		case "setoption":
			u.handleSetOption(args)
		case "d":
			fmt.Println(u.position.String())
			legal := u.position.GenerateLegalMoves()
			moves := make([]board.Move, legal.Len())
			for i := 0; i < legal.Len(); i++ {
				moves[i] = legal.Get(i)
			}
			fmt.Printf("Legal moves: %s\n", strings.Join(board.MovesToSAN(u.position, moves), " "))
		case "perft":
			u.handlePerft(args)
		}
	}
}

func (u *UCI) handleUCI() {
	fmt.Println("id name ChessPlay")
	fmt.Println("id author ChessPlay Team")
	fmt.Println()
	fmt.Println("option name Hash type spin default 64 min 1 max 4096")
	fmt.Printf("option name Telemetry type check default %t\n", u.telemetry != nil)
	fmt.Println("uciok")
}

func (u *UCI) handleNewGame() {
	u.driver.Clear()
	u.position = board.NewPosition()
}

// handlePosition parses and sets up a position. Formats:
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen>
//   - position fen <fen> moves e2e4
func (u *UCI) handlePosition(args []string) {
	if len(args) == 0 {
		return
	}

	var moveStart int

	switch args[0] {
	case "startpos":
		u.position = board.NewPosition()
		moveStart = 1
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	case "fen":
		fenEnd := len(args)
		for i, arg := range args[1:] {
			if arg == "moves" {
				fenEnd = i + 1
				break
			}
		}

		fenStr := strings.Join(args[1:fenEnd], " ")
		pos, err := board.ParseFEN(fenStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "info string Invalid FEN: %v\n", err)
			return
		}
		pos.UpdateCheckers()
		u.position = pos

		moveStart = len(args)
		for i, arg := range args {
			if arg == "moves" {
				moveStart = i + 1
				break
			}
		}
	default:
		return
	}

	if moveStart < len(args) {
		for _, moveStr := range args[moveStart:] {
			move := u.parseMove(moveStr)
			if move == board.NoMove {
				fmt.Fprintf(os.Stderr, "info string Invalid move: %s\n", moveStr)
				return
			}
			u.position.MakeMove(move)
		}
	}
}

// parseMove converts a UCI move string (e.g. "e2e4", "e7e8q") to a
// board.Move by matching it against the current position's legal moves.
func (u *UCI) parseMove(moveStr string) board.Move {
	if len(moveStr) < 4 {
		return board.NoMove
	}

	fromFile := int(moveStr[0] - 'a')
	fromRank := int(moveStr[1] - '1')
	toFile := int(moveStr[2] - 'a')
	toRank := int(moveStr[3] - '1')

	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return board.NoMove
	}

	from := board.NewSquare(fromFile, fromRank)
	to := board.NewSquare(toFile, toRank)

	var promo board.PieceType
	if len(moveStr) == 5 {
		switch moveStr[4] {
		case 'q':
			promo = board.Queen
		case 'r':
			promo = board.Rook
		case 'b':
			promo = board.Bishop
		case 'n':
			promo = board.Knight
		}
	}

	moves := u.position.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.From() != from || m.To() != to {
			continue
		}
		if promo != 0 {
			if m.IsPromotion() && m.Promotion() == promo {
				return m
			}
			continue
		}
		if !m.IsPromotion() {
			return m
		}
	}

	return board.NoMove
}

// GoOptions holds parsed "go" command options.
type GoOptions struct {
	Depth     int
	MoveTime  time.Duration
	Infinite  bool
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// handleGo starts a search with the given parameters in a goroutine so the
// UCI loop stays responsive to "stop".
func (u *UCI) handleGo(args []string) {
	opts := u.parseGoOptions(args)

	if u.position.GameOver() {
		fmt.Fprintln(os.Stderr, "info string go requested on a terminal position")
		fmt.Println("bestmove 0000")
		return
	}

	limits := u.calculateLimits(opts)

	var lastInfo engine.SearchInfo
	u.driver.OnInfo = func(info engine.SearchInfo) {
		lastInfo = info
		u.sendInfo(info)
	}

	u.searching = true
	u.stopRequested.Store(false)
	u.searchDone = make(chan struct{})

	pos := u.position.Copy()
	rootHash := pos.Hash
	startTime := time.Now()

	go func() {
		defer close(u.searchDone)

		bestMove, err := u.driver.Search(pos, limits)
		u.searching = false

		if err != nil {
			fmt.Fprintf(os.Stderr, "info string search error: %v\n", err)
			fmt.Println("bestmove 0000")
			return
		}

		// Validate legality against a fresh copy of the original position:
		// the search mutates pos via make/unmake, and the UCI protocol
		// must never emit a move that isn't legal in the position it was
		// asked about.
		validationPos := u.position.Copy()
		legal := validationPos.GenerateLegalMoves()
		found := false
		for i := 0; i < legal.Len(); i++ {
			if legal.Get(i) == bestMove {
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "info string CRITICAL: search returned illegal move %s\n", bestMove.String())
			if legal.Len() > 0 {
				bestMove = legal.Get(0)
			} else {
				fmt.Println("bestmove 0000")
				return
			}
		}

		u.recordTelemetry(rootHash, time.Since(startTime), lastInfo)
		fmt.Printf("bestmove %s\n", bestMove.String())
	}()
}

func (u *UCI) recordTelemetry(rootHash uint64, elapsed time.Duration, info engine.SearchInfo) {
	if !u.telemetryEnabled || u.telemetry == nil {
		return
	}
	summary := telemetry.SearchSummary{
		Hash:          rootHash,
		DepthReached:  info.Depth,
		NodesSearched: info.Nodes,
		ScoreCP:       int64(info.Score),
		HashFull:      info.HashFull,
		Elapsed:       elapsed,
		RecordedAt:    time.Now(),
	}
	if err := u.telemetry.Record(summary); err != nil {
		fmt.Fprintf(os.Stderr, "info string telemetry record failed: %v\n", err)
	}
}

func (u *UCI) parseGoOptions(args []string) GoOptions {
	opts := GoOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "depth":
			if i+1 < len(args) {
				opts.Depth, _ = strconv.Atoi(args[i+1])
				i++
			}
		case "movetime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.MoveTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "infinite":
			opts.Infinite = true
		case "wtime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "btime":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BTime = time.Duration(ms) * time.Millisecond
				i++
			}
		case "winc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.WInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "binc":
			if i+1 < len(args) {
				ms, _ := strconv.Atoi(args[i+1])
				opts.BInc = time.Duration(ms) * time.Millisecond
				i++
			}
		case "movestogo":
			if i+1 < len(args) {
				opts.MovesToGo, _ = strconv.Atoi(args[i+1])
				i++
			}
		}
	}

	return opts
}

// calculateLimits converts GoOptions to engine.SearchLimits, applying
// spec.md §5's fixed think-time formula (max(clock/20, 100ms), or a flat
// 100ms with no clock) via engine.TimeManager to the side to move's clock
// and handing the result to the driver as MoveTime.
func (u *UCI) calculateLimits(opts GoOptions) engine.SearchLimits {
	limits := engine.SearchLimits{Depth: opts.Depth}

	if opts.Infinite {
		limits.Depth = engine.MaxPly
		limits.Infinite = true
		return limits
	}

	if opts.MoveTime > 0 {
		limits.MoveTime = opts.MoveTime
		return limits
	}

	tm := engine.NewTimeManager()
	tm.Init(engine.UCILimits{Time: [2]time.Duration{opts.WTime, opts.BTime}}, u.position.SideToMove, 0)
	limits.MoveTime = tm.MaximumTime()

	return limits
}

// sendInfo outputs search info in UCI format.
func (u *UCI) sendInfo(info engine.SearchInfo) {
	var parts []string

	parts = append(parts, fmt.Sprintf("depth %d", info.Depth))

	if info.Score > engine.Mate-100 {
		mateIn := (engine.Mate - info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else if info.Score < -engine.Mate+100 {
		mateIn := -(engine.Mate + info.Score + 1) / 2
		parts = append(parts, fmt.Sprintf("score mate %d", mateIn))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %d", info.Score))
	}

	parts = append(parts, fmt.Sprintf("nodes %d", info.Nodes))
	parts = append(parts, fmt.Sprintf("time %d", info.Time.Milliseconds()))

	if info.Time > 0 {
		nps := uint64(float64(info.Nodes) / info.Time.Seconds())
		parts = append(parts, fmt.Sprintf("nps %d", nps))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}

	fmt.Printf("info %s\n", strings.Join(parts, " "))
}

// handleStop requests cooperative termination of the in-flight search and
// waits for it to unwind before returning, so a subsequent "position"/"go"
// never races the previous search's TT writes (spec.md §5's ordering
// guarantee).
func (u *UCI) handleStop() {
	if u.searching {
		u.stopRequested.Store(true)
		u.driver.Stop()
		<-u.searchDone
	}
}

func (u *UCI) handleQuit() {
	u.handleStop()
	if u.telemetry != nil {
		u.telemetry.Close()
	}
	os.Exit(0)
}

// handleSetOption processes "setoption" commands. Only Hash and Telemetry
// are recognized, matching spec.md's AMBIENT STACK configuration surface.
func (u *UCI) handleSetOption(args []string) {
	var name, value string
	readingName, readingValue := false, false

	for _, arg := range args {
		switch arg {
		case "name":
			readingName, readingValue = true, false
		case "value":
			readingName, readingValue = false, true
		default:
			if readingName {
				if name != "" {
					name += " "
				}
				name += arg
			} else if readingValue {
				if value != "" {
					value += " "
				}
				value += arg
			}
		}
	}

	switch strings.ToLower(name) {
	case "hash":
		// The table is sized once, when the Driver is constructed at
		// startup, and ucinewgame only clears it; the option is accepted
		// and ignored.
	case "telemetry":
		u.telemetryEnabled = strings.ToLower(value) == "true" && u.telemetry != nil
	}
}

// handlePerft runs a perft test (debug command, not part of the UCI
// protocol proper).
func (u *UCI) handlePerft(args []string) {
	depth := 5
	if len(args) > 0 {
		depth, _ = strconv.Atoi(args[0])
	}

	start := time.Now()
	nodes := perft(u.position, depth)
	elapsed := time.Since(start)

	fmt.Printf("Nodes: %d\n", nodes)
	fmt.Printf("Time: %v\n", elapsed)
	if elapsed > 0 {
		nps := float64(nodes) / elapsed.Seconds()
		fmt.Printf("NPS: %.0f\n", nps)
	}
}

func perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	moves := pos.GenerateLegalMoves()
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}
	return nodes
}
