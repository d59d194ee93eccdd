// File: engine/engine.go
// Package engine implements api.Control: it wires the classifier, zero-copy
// transport, drainer pool and control surface together into one runnable
// unit (spec §4.5, §6). This is the only package that imports both classify
// and xdp and drainer at once; each of those stays decoupled from the others
// through the small interfaces they declare (classify.Steerer, drainer.Queue,
// and so on) so the dependency direction is strictly engine -> {classify,
// xdp, drainer, control}, matching the teacher's facade/hioload.go
// orchestration role over transport/pool/reactor/executor. The optional
// capture sink is constructed by the caller (e.g. capture.NewSink) and
// handed in through EnableCapture as an api.CaptureSink value.
// Author: momentics <momentics@gmail.com>
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/packetengine/affinity"
	"github.com/momentics/packetengine/api"
	"github.com/momentics/packetengine/classify"
	"github.com/momentics/packetengine/control"
	"github.com/momentics/packetengine/drainer"
	"github.com/momentics/packetengine/xdp"
)

// queueUnit bundles everything owned by one steered queue: its transport
// ring, capture source, drainer goroutine and per-queue flow table, so Start
// and Stop can iterate one slice rather than several parallel ones.
type queueUnit struct {
	queue     *xdp.Queue
	source    xdp.Source
	drainer   *drainer.Drainer
	extractor *drainer.Extractor
}

// Engine is the concrete api.Control implementation.
type Engine struct {
	mu  sync.Mutex
	log logr.Logger

	cfgStore *control.ConfigStore
	stats    *control.Stats
	metrics  *control.MetricsCollector
	debug    *control.DebugProbes

	classifier *classify.Classifier
	attacher   classify.Attacher
	units      []*queueUnit

	running bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New validates cfg and constructs an Engine ready for Start. log may be the
// zero value, in which case logging is discarded (spec §4.6 ambient stack:
// "nil defaults to logr.Discard()").
func New(cfg api.Config, log logr.Logger) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	e := &Engine{
		log:      log,
		cfgStore: control.NewConfigStore(cfg),
		stats:    control.NewStats(),
		debug:    control.NewDebugProbes(),
	}
	e.metrics = control.NewMetricsCollector(e.stats)
	e.classifier = classify.New(e.stats, e, e.cfgStore.Load)
	e.attacher = classify.NewXDPAttacher()

	if err := e.buildQueues(cfg); err != nil {
		return nil, err
	}
	control.RegisterPlatformProbes(e.debug)
	for _, u := range e.units {
		u := u
		e.debug.RegisterProbe(fmt.Sprintf("queue.%d.ring_len", u.queue.ID()), func() any {
			return u.queue.Len()
		})
		e.debug.RegisterProbe(fmt.Sprintf("queue.%d.flow_occupancy", u.queue.ID()), func() any {
			return u.extractor.FlowCount()
		})
	}
	return e, nil
}

// Enqueue implements classify.Steerer by fanning out to the queue whose ID
// matches, satisfying the Classifier's single Steerer dependency across
// however many queues Config.QueueIDs names.
func (e *Engine) Enqueue(queueID uint32, frame api.Frame) bool {
	for _, u := range e.units {
		if u.queue.ID() == queueID {
			return u.queue.Enqueue(queueID, frame)
		}
	}
	return false
}

func (e *Engine) buildQueues(cfg api.Config) error {
	queueIDs := cfg.QueueIDs
	if len(queueIDs) == 0 {
		queueIDs = []int{0}
	}
	for _, id := range queueIDs {
		q, err := xdp.NewQueue(uint32(id), cfg.FrameSize, cfg.PoolFrames, uint64(cfg.RingCapacity), -1)
		if err != nil {
			return api.NewError(api.ErrCodeResourceExhausted, "allocate queue %d: %v", id, err)
		}

		var flows *drainer.FlowTable
		if cfg.FlowTableEntries > 0 {
			flows = drainer.NewFlowTable(cfg.FlowTableEntries, cfg.FlowTableTimeout)
		}
		extractor := drainer.NewExtractor(flows, nil, nil)
		d := drainer.New(q, extractor, e.stats, nil, nil, nil, cfg.MaxUserRate)

		e.units = append(e.units, &queueUnit{queue: q, drainer: d, extractor: extractor})
	}
	return nil
}

// Start attaches the classifier to the interface and launches one source
// goroutine and one drainer goroutine per steered queue (spec §4.2 "attach",
// §5 "one drainer worker per steered queue").
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return api.NewError(api.ErrCodeAlreadyRunning, "engine already running")
	}

	cfg := e.cfgStore.Load()
	queueIDs := make([]int, len(e.units))
	for i, u := range e.units {
		queueIDs[i] = int(u.queue.ID())
		src, err := xdp.NewSource(cfg.Interface, cfg.ZeroCopyMode, cfg.FrameSize)
		if err != nil {
			return api.NewError(attachErrorCode(err), "open source on %q: %v", cfg.Interface, err).
				WithContext("interface", cfg.Interface)
		}
		u.source = src
	}

	if err := e.attacher.Attach(cfg.Interface, queueIDs, e.classifier); err != nil {
		for _, u := range e.units {
			if u.source != nil {
				_ = u.source.Close()
			}
		}
		return api.NewError(attachErrorCode(err), "attach to %q: %v", cfg.Interface, err).
			WithContext("interface", cfg.Interface)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	e.group = g

	for i, u := range e.units {
		u := u
		cpu := i
		g.Go(func() error {
			// Keep this goroutine on one OS thread so the affinity applies to
			// the drainer; the thread exits with the goroutine.
			runtime.LockOSThread()
			if err := affinity.SetAffinity(cpu); err != nil {
				e.log.V(1).Info("affinity pin skipped", "cpu", cpu, "reason", err)
			}
			u.drainer.Run(gctx)
			return nil
		})
		g.Go(func() error {
			err := u.source.Run(gctx, u.queue, e.classifier.Classify)
			if err != nil && gctx.Err() == nil {
				e.log.Error(err, "source terminated unexpectedly", "queue", u.queue.ID())
			}
			return err
		})
	}

	e.running = true
	e.log.Info("engine started", "interface", cfg.Interface, "queues", queueIDs)
	return nil
}

// Stop blocks until every drainer and source goroutine has observed the stop
// signal and returned (spec §5 "Stop blocks... via errgroup.Group.Wait()"),
// then detaches the classifier.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return nil
	}

	e.cancel()
	for _, u := range e.units {
		_ = u.source.Close()
	}
	_ = e.group.Wait()

	if err := e.attacher.Detach(); err != nil {
		e.log.Error(err, "detach failed")
	}
	e.running = false
	e.log.Info("engine stopped")
	return nil
}

// Destroy stops the engine (if running) and releases every queue's backing
// frame pool. The Engine is unusable afterward.
func (e *Engine) Destroy() error {
	if err := e.Stop(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.units {
		u.queue.Close()
	}
	e.log.Info("engine destroyed")
	return nil
}

// GetStats returns a point-in-time statistics snapshot.
func (e *Engine) GetStats() api.Statistics {
	return e.stats.Snapshot()
}

// UpdateConfig atomically installs a new configuration snapshot (spec §4.5
// control_update_config), effective on the classifier's next packet.
// Queues, frame pools, rings, flow tables and the drainers' rate limits are
// built once in New from the initial Config; UpdateConfig never rebuilds
// them, so changes to PoolFrames, RingCapacity, QueueIDs, MaxUserRate or the
// FlowTable fields have no effect. Start reads Interface, ZeroCopyMode and
// FrameSize from the current snapshot when it opens the sources.
func (e *Engine) UpdateConfig(cfg api.Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	e.cfgStore.Update(cfg)
	e.log.V(1).Info("configuration updated", "sampling_stride", cfg.SamplingStride, "steer_queue_id", cfg.SteerQueueID)
	return nil
}

// SetClassifier replaces the traffic-classification policy on both the
// classifier's own tagging step and the drainer's independent re-tagging
// (drainer/extract.go), so the two stay in agreement for every newly
// classified packet.
func (e *Engine) SetClassifier(policy api.ClassifierPolicy) error {
	if policy == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "classifier policy must not be nil")
	}
	e.classifier.SetPolicy(policy)
	for _, u := range e.units {
		u.extractor.SetPolicy(policy)
	}
	return nil
}

// EnableCapture installs sink as the tee'd capture path on every drainer.
// maxFrames is the caller's intended cap; callers should construct sink
// (e.g. capture.NewSink) with the same bound, since the sink — not the
// engine — owns cap enforcement (spec §4.5 "capped at the configured frame
// count").
func (e *Engine) EnableCapture(sink api.CaptureSink, maxFrames int) error {
	if sink == nil {
		return api.NewError(api.ErrCodeInvalidArgument, "capture sink must not be nil")
	}
	if maxFrames <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "maxFrames must be positive")
	}
	for _, u := range e.units {
		u.drainer.SetCapture(sink)
	}
	e.log.Info("capture enabled", "max_frames", maxFrames)
	return nil
}

// EnableFlowTracking activates bounded per-queue flow tables used to compute
// inter_arrival_time (spec §4.5 enable_flow_tracking). Each queue gets its
// own table so drainer goroutines never share eviction-queue state (spec §5
// "FlowTable: per-queue... to avoid cross-thread synchronization").
func (e *Engine) EnableFlowTracking(n int, timeout int64) error {
	if n <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "flow table size must be positive")
	}
	for _, u := range e.units {
		u.extractor.SetFlowTable(drainer.NewFlowTable(n, timeout))
	}
	e.log.Info("flow tracking enabled", "entries", n, "timeout_ns", timeout)
	return nil
}

// SetCallback installs the pluggable analysis callback invoked by every
// drainer (spec §4.4 step 3e). Not part of api.Control: callbacks are
// language-specific function values, installed once at construction time by
// the embedding Go application rather than through the cross-language
// control surface.
func (e *Engine) SetCallback(callback api.AnalysisCallback, userCtx any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.units {
		u.drainer.SetCallback(callback, userCtx)
	}
}

// Metrics exposes the Prometheus adapter for callers that want to register
// it with their own registry, rather than forcing one onto the default
// global registry.
func (e *Engine) Metrics() *control.MetricsCollector { return e.metrics }

// Debug exposes the named debug-probe registry (flow occupancy, ring depth),
// alongside Statistics, without adding fields to the stable Statistics shape.
func (e *Engine) Debug() *control.DebugProbes { return e.debug }

// attachErrorCode classifies a source-open or attach failure: EACCES/EPERM
// (opening an AF_PACKET socket or loading an XDP program without
// CAP_NET_RAW/CAP_BPF) map to ErrCodePermissionDenied so cmd/packetengine
// can report exit code 3 (spec §6); every other failure is an attach error.
// errors.Is(err, os.ErrPermission) works across both syscall.Errno (Linux)
// and whatever wraps os.ErrPermission on other platforms, since it walks
// the %w chain produced by xdp.NewSource/classify.Attacher.Attach.
func attachErrorCode(err error) api.ErrorCode {
	if errors.Is(err, os.ErrPermission) {
		return api.ErrCodePermissionDenied
	}
	return api.ErrCodeAttachFailed
}

func validateConfig(cfg api.Config) error {
	if cfg.Interface == "" {
		return api.NewError(api.ErrCodeInvalidArgument, "interface name required")
	}
	if cfg.FrameSize <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "frame size must be positive")
	}
	if cfg.PoolFrames <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "pool frame count must be positive")
	}
	if cfg.RingCapacity == 0 || cfg.RingCapacity&(cfg.RingCapacity-1) != 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "ring capacity must be a power of two, got %d", cfg.RingCapacity)
	}
	if cfg.SamplingStride == 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "sampling stride must be at least 1")
	}
	return nil
}

var _ api.Control = (*Engine)(nil)
