// File: drainer/drainer.go
// Package drainer implements the consumer side of the RX ring: one
// goroutine per steered queue that extracts a FeatureRecord from each
// frame, invokes the pluggable analysis callback, optionally tees the frame
// to a capture sink, and returns the frame to its fill ring (spec §4.4).
// Author: momentics <momentics@gmail.com>
//
// Callback invocation is wrapped in a panic recovery, matching the
// teacher's epoll reactor's "a misbehaving callback must not take down the
// event loop" discipline (reactor/epoll_reactor.go Poll).
package drainer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/momentics/packetengine/api"
)

// Counters receives statistics increments from the drainer's hot path,
// mirroring classify.Counters so both packages depend only on this small
// interface rather than on control.Stats directly.
type Counters interface {
	Add(idx api.StatIndex, delta uint64)
}

// Queue is the subset of xdp.Queue the drainer needs: blocking dequeue and
// frame release. Expressed as an interface so drainer does not import xdp,
// keeping the dependency direction engine -> {xdp, drainer} rather than
// drainer -> xdp.
type Queue interface {
	Dequeue(ctx context.Context) (api.Frame, bool)
	Release(f api.Frame)
}

// callbackBinding pairs a callback with the user context it closes over, so
// both can be swapped together behind a single atomic pointer.
type callbackBinding struct {
	fn      api.AnalysisCallback
	userCtx any
}

// Drainer consumes one steered queue.
type Drainer struct {
	queue     Queue
	extractor *Extractor
	stats     Counters
	callback  atomic.Pointer[callbackBinding]
	capture   atomic.Pointer[api.CaptureSink]
	limiter   *rateLimiter
}

// New builds a Drainer over queue. callback may be nil (records are
// extracted and counted but nothing is invoked). capture may be nil to
// disable the tee path. maxRate <= 0 disables rate limiting.
func New(queue Queue, extractor *Extractor, stats Counters, callback api.AnalysisCallback, userCtx any, capture api.CaptureSink, maxRate uint64) *Drainer {
	d := &Drainer{
		queue:     queue,
		extractor: extractor,
		stats:     stats,
		limiter:   newRateLimiter(maxRate),
	}
	if callback != nil {
		d.callback.Store(&callbackBinding{fn: callback, userCtx: userCtx})
	}
	if capture != nil {
		d.capture.Store(&capture)
	}
	return d
}

// SetCapture installs or replaces the tee'd capture sink (spec §4.5
// enable_capture), effective on the next processed frame. Passing nil
// disables the tee.
func (d *Drainer) SetCapture(capture api.CaptureSink) {
	if capture == nil {
		d.capture.Store(nil)
		return
	}
	d.capture.Store(&capture)
}

// SetCallback installs or replaces the pluggable analysis callback, in
// effect for the next processed frame. Passing nil disables invocation
// (records are still extracted and counted).
func (d *Drainer) SetCallback(callback api.AnalysisCallback, userCtx any) {
	if callback == nil {
		d.callback.Store(nil)
		return
	}
	d.callback.Store(&callbackBinding{fn: callback, userCtx: userCtx})
}

// Run processes frames until ctx is cancelled, then drains whatever is
// already queued before returning (spec §5 "Stop blocks until all drainer
// threads have observed the stop signal", implemented here as: after
// cancellation Queue.Dequeue still hands out frames already in the RX ring,
// and Run returns once it reports nothing left).
func (d *Drainer) Run(ctx context.Context) {
	for {
		frame, ok := d.queue.Dequeue(ctx)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		d.process(frame)
	}
}

func (d *Drainer) process(frame api.Frame) {
	defer d.queue.Release(frame)

	raw := frame.Bytes()
	record, ok := d.extractor.Extract(raw, uint64(time.Now().UnixNano()))
	if !ok {
		return
	}

	if sink := d.capture.Load(); sink != nil {
		if err := (*sink).Write(raw, record); err != nil {
			// capture failures never block the data path; nothing to do but
			// drop this sample from the capture stream.
			_ = err
		}
	}

	binding := d.callback.Load()
	if binding == nil || !d.limiter.allow() {
		return
	}
	d.invokeCallback(binding, &record)
}

// invokeCallback calls the user's analysis callback with panic recovery, so
// a misbehaving callback never takes down the drainer goroutine (spec §7
// "a panicking callback increments anomaly_signals and is otherwise
// ignored").
func (d *Drainer) invokeCallback(binding *callbackBinding, record *api.FeatureRecord) {
	defer func() {
		if r := recover(); r != nil {
			if d.stats != nil {
				d.stats.Add(api.StatAnomalySignals, 1)
			}
		}
	}()
	result := binding.fn(record, binding.userCtx)
	if result != 0 && d.stats != nil {
		d.stats.Add(api.StatAnomalySignals, 1)
	}
}

// rateLimiter is a fixed one-second window counter limiting callback
// invocations per second (spec §3 Config.MaxUserRate).
type rateLimiter struct {
	maxPerSecond uint64
	windowStart  time.Time
	count        uint64
}

func newRateLimiter(maxPerSecond uint64) *rateLimiter {
	return &rateLimiter{maxPerSecond: maxPerSecond, windowStart: time.Now()}
}

// allow reports whether the caller may proceed under the configured rate.
// Not safe for concurrent use across goroutines; each Drainer owns one
// limiter and Run is single-goroutine per queue.
func (r *rateLimiter) allow() bool {
	if r.maxPerSecond == 0 {
		return true
	}
	now := time.Now()
	if now.Sub(r.windowStart) >= time.Second {
		r.windowStart = now
		r.count = 0
	}
	if r.count >= r.maxPerSecond {
		return false
	}
	r.count++
	return true
}
