package pipeline

import (
	"context"
	"time"
)

// Downlink replays a finite sequence of messages as a live feed. It is a
// pull iterator: each Next call runs exactly one transmission, so the
// caller sets the pace and stopping early just means not calling again.
type Downlink struct {
	sim      *Simulator
	params   Params
	messages []string
	pos      int
	baseSeed uint64
}

// NewDownlink builds a downlink over messages. The params act as the
// shared link configuration; each tick varies only the seed.
func NewDownlink(sim *Simulator, params Params, messages []string) *Downlink {
	seed := params.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Downlink{sim: sim, params: params, messages: messages, baseSeed: seed}
}

// Next runs the next transmission in the sequence. ok is false once the
// sequence is exhausted or the context is canceled; the downlink holds no
// resources, so stopping is just not calling Next again.
func (d *Downlink) Next(ctx context.Context) (res Result, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return Result{}, false, err
	}
	if d.pos >= len(d.messages) {
		return Result{}, false, nil
	}
	run := d.params
	run.Message = d.messages[d.pos]
	run.Seed = d.baseSeed + uint64(d.pos)
	d.pos++

	res, err = d.sim.Simulate(run)
	if err != nil {
		return Result{}, false, err
	}
	return res, true, nil
}

// Remaining reports how many messages have not yet been transmitted.
func (d *Downlink) Remaining() int { return len(d.messages) - d.pos }

// Reset rewinds the downlink so the sequence can be replayed.
func (d *Downlink) Reset() { d.pos = 0 }
