package logpipe

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"fenrir/internal/trade"
	"fenrir/internal/types"
)

// spinLimit is how many consecutive empty polls the consumer makes before
// yielding the processor.
const spinLimit = 256

// Pipe is the trade-log pipeline: a producer-side API used by the matching
// thread and a consumer goroutine that drains the ring and writes formatted
// entries to a sink. Exactly two participants ever touch it: the Book that
// owns it (producer) and the Pipe's own consumer goroutine.
type Pipe struct {
	r    ring
	tick atomic.Uint64

	sink   io.Writer
	closer io.Closer // non-nil when the sink should be closed on Stop

	t *tomb.Tomb

	opLog zerolog.Logger // operational logging, distinct from the trade log sink
}

// New constructs a Pipe writing formatted entries to sink. If sink also
// implements io.Closer, it is closed when Stop completes draining.
func New(sink io.Writer, opLog zerolog.Logger) *Pipe {
	p := &Pipe{sink: sink, opLog: opLog}
	if c, ok := sink.(io.Closer); ok {
		p.closer = c
	}
	return p
}

// Start launches the consumer goroutine under a tomb.Tomb for supervised
// lifecycle management: Stop can signal it to wind down and wait for it to
// actually exit, rather than relying on a raw stop flag the consumer polls
// on its own schedule.
func (p *Pipe) Start() {
	p.t = new(tomb.Tomb)
	p.opLog.Info().Msg("trade log consumer starting")
	p.t.Go(p.consume)
}

// Stop signals the consumer to perform one final drain and flush, then
// waits for it to exit. Between the producer ceasing and the consumer
// stopping, the consumer always drains any remainder after it observes the
// kill signal and before it exits, so no pushed entry is lost.
func (p *Pipe) Stop() error {
	if p.t == nil {
		return nil
	}
	p.t.Kill(nil)
	return p.t.Wait()
}

// nextTick advances and returns the pipeline's monotonic tick counter.
func (p *Pipe) nextTick() uint64 {
	return p.tick.Add(1)
}

// LogTrade publishes a TRADE entry. Non-blocking: on a full ring the
// producer yields and retries (cooperative backoff) rather than blocking on
// I/O. LogTrade never drops an entry; it only ever delays the caller.
func (p *Pipe) LogTrade(tr trade.Trade) {
	e := tradeEntry(p.nextTick(), tr.Bid.OrderID, tr.Ask.OrderID, tr.Ask.Price, tr.Ask.Quantity)
	p.push(e)
}

// LogMessage publishes a MESSAGE entry. text longer than 127 bytes is
// truncated.
func (p *Pipe) LogMessage(text string) {
	p.push(messageEntry(p.nextTick(), text))
}

// LogOrderError publishes an ERROR entry referencing the offending OrderID.
func (p *Pipe) LogOrderError(id types.OrderID) {
	p.push(errorEntry(p.nextTick(), id))
}

// push is the producer's non-blocking wait-free contract: try once, and on
// a full ring, yield the processor and retry. This is the only place the
// producer may briefly suspend.
func (p *Pipe) push(e entry) {
	for !p.r.tryPush(e) {
		runtime.Gosched()
	}
}

// consume is the consumer goroutine body: drain bursts without yielding;
// when empty, spin up to spinLimit times before yielding; on a kill signal,
// perform one final drain, flush the sink, then return.
func (p *Pipe) consume() error {
	w := bufio.NewWriter(p.sink)
	var lastTick uint64

	drain := func() {
		for {
			e, ok := p.r.tryPop()
			if !ok {
				return
			}
			lastTick = e.tick
			formatEntry(w, e)
		}
	}

	spins := 0
	for {
		select {
		case <-p.t.Dying():
			drain() // final drain: nothing pushed before Kill is lost
			w.WriteString(fmt.Sprintf("End logger\nTick: %d\n", lastTick))
			if ferr := w.Flush(); ferr != nil {
				p.opLog.Error().Err(ferr).Msg("trade log flush failed")
			}
			if p.closer != nil {
				if cerr := p.closer.Close(); cerr != nil {
					p.opLog.Error().Err(cerr).Msg("trade log sink close failed")
				}
			}
			p.opLog.Info().Msg("trade log consumer stopped")
			return nil
		default:
		}

		if e, ok := p.r.tryPop(); ok {
			lastTick = e.tick
			formatEntry(w, e)
			drain()
			spins = 0
			continue
		}

		spins++
		if spins >= spinLimit {
			runtime.Gosched()
			spins = 0
		}
	}
}

// formatEntry renders one entry in the pipeline's stable on-disk format:
//   - TRADE:   "tick | bid_id | ask_id | price | qty"
//   - MESSAGE: a delimited block with the tick and the message text.
//   - ERROR:   "Error with order: <id>"
func formatEntry(w io.Writer, e entry) {
	switch e.kind {
	case kindTrade:
		fmt.Fprintf(w, "%d | %d | %d | %d | %d\n", e.tick, e.bidID, e.askID, e.price, e.qty)
	case kindMessage:
		fmt.Fprintf(w, "\n-----------------------------------------------------------\n")
		fmt.Fprintf(w, "%d | MESSAGE:\n%s\n", e.tick, string(e.msg[:e.msgLen]))
		fmt.Fprintf(w, "-----------------------------------------------------------\n\n")
	case kindError:
		fmt.Fprintf(w, "Error with order: %d\n", e.errOrderID)
	}
}
