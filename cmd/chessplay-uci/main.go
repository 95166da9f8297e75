// Command chessplay-uci is the process entrypoint: it opens the telemetry
// store, constructs the search engine and the UCI protocol handler, and
// runs the UCI main loop against stdin/stdout.
package main

import (
	"log"

	"github.com/hailam/chessplay/internal/engine"
	"github.com/hailam/chessplay/internal/telemetry"
	"github.com/hailam/chessplay/internal/uci"
)

// defaultHashMB is the transposition table size used at startup; the UCI
// Hash option exists for front-end discoverability but does not resize the
// table mid-game (see uci.handleSetOption).
const defaultHashMB = 64

func main() {
	store, err := telemetry.Open()
	if err != nil {
		log.Printf("telemetry store unavailable, continuing without it: %v", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	driver := engine.NewDriver(defaultHashMB)
	protocol := uci.New(driver, store)
	protocol.Run()
}
