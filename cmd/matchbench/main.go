// Command matchbench drives the matching core directly: it submits a small
// script of orders against a single Book, printing the resulting trades and
// level snapshot, with trade logging flowing through logpipe.Pipe. There is
// no network layer; this driver calls the library in-process.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/logpipe"
)

func main() {
	logDir := flag.String("logdir", "logs", "directory to write the trade log file into")
	flag.Parse()

	if err := os.MkdirAll(*logDir, 0o755); err != nil {
		log.Error().Err(err).Msg("failed to create log directory")
		os.Exit(1)
	}

	sink, err := logpipe.OpenFileSink(*logDir)
	if err != nil {
		log.Error().Err(err).Msg("fatal: could not initialize trade log sink")
		os.Exit(1)
	}

	opLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	pipe := logpipe.New(sink, opLog)
	pipe.Start()

	b := book.New(book.WithLogger(pipe))

	runDemo(b)

	if err := pipe.Stop(); err != nil {
		opLog.Error().Err(err).Msg("trade log consumer exited with error")
		os.Exit(1)
	}
}

// runDemo submits a handful of orders illustrating a multi-level sweep and a
// rejected FOK, printing the trades of each submit, the book's level snapshot
// after the sweep, and the final count of resting orders.
func runDemo(b *book.Book) {
	submit := func(side book.Side, price book.Price, qty book.Quantity, typ book.OrderType) {
		trades := b.Submit(side, price, qty, typ)
		fmt.Printf("submit side=%v price=%d qty=%d type=%v -> %d trade(s)\n", side, price, qty, typ, len(trades))
		for _, tr := range trades {
			fmt.Printf("  %v\n", tr)
		}
	}

	submit(book.Sell, 100, 30, book.GoodTillCancel)
	submit(book.Sell, 103, 20, book.GoodTillCancel)
	submit(book.Buy, 105, 40, book.GoodTillCancel)

	bids, asks := b.LevelInfos()
	printLevels(bids, asks)

	submit(book.Buy, 90, 1000, book.FillOrKill) // rejected: insufficient liquidity

	fmt.Printf("resting orders: %d\n", b.Size())
}

func printLevels(bids, asks []book.LevelInfo) {
	fmt.Println("bids:")
	for _, lvl := range bids {
		fmt.Printf("  %v\n", lvl)
	}
	fmt.Println("asks:")
	for _, lvl := range asks {
		fmt.Printf("  %v\n", lvl)
	}
}
