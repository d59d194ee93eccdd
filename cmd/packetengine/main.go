// File: cmd/packetengine/main.go
// Author: momentics <momentics@gmail.com>
//
// Reference CLI embedding the packet engine (spec §6 "CLI surface for the
// reference utility"), built directly on the teacher's
// examples/lowlevel/echo/main.go flag-parsing and signal-handling shape:
// standard library flag (no cobra — the teacher never reaches for one
// either) and a signal.Notify(SIGINT, SIGTERM) graceful-stop channel.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/momentics/packetengine/api"
	"github.com/momentics/packetengine/engine"
)

const (
	exitOK                = 0
	exitConfigError       = 1
	exitAttachFailure     = 2
	exitPermissionDenied  = 3
	exitRuntimeError      = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("packetengine", flag.ContinueOnError)
	queues := fs.Int("queues", 1, "number of steered queues")
	sampleStride := fs.Uint("sample-stride", 1, "sampling skip ratio (1 = sample every packet)")
	duration := fs.Int("duration", 0, "stop after SEC seconds (0 = run until signaled)")
	batch := fs.Int("batch", 64, "batch size stored in Config.BatchSize (the drainer dequeues one frame at a time)")
	rate := fs.Uint64("rate", 0, "max analysis callback invocations per second (0 = unlimited)")
	noZeroCopy := fs.Bool("no-zero-copy", false, "disable the zero-copy raw-socket path, using a copy-based reader")
	verbose := fs.Bool("verbose", false, "enable structured logging to stderr")

	if err := fs.Parse(args); err != nil {
		return exitConfigError
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: packetengine <interface> <mode> [flags]")
		fmt.Fprintln(os.Stderr, "  mode one of: classify, anomaly, security")
		return exitConfigError
	}
	iface, mode := fs.Arg(0), fs.Arg(1)
	if mode != "classify" && mode != "anomaly" && mode != "security" {
		fmt.Fprintf(os.Stderr, "unrecognized mode %q (want classify, anomaly, or security)\n", mode)
		return exitConfigError
	}

	log := logr.Discard()
	if *verbose {
		log = funcr.New(func(prefix, args string) {
			fmt.Fprintln(os.Stderr, prefix, args)
		}, funcr.Options{})
	}

	cfg := api.DefaultConfig()
	cfg.Interface = iface
	cfg.SamplingStride = uint32(*sampleStride)
	cfg.MaxUserRate = *rate
	cfg.BatchSize = *batch
	cfg.ZeroCopyMode = !*noZeroCopy
	cfg.QueueIDs = make([]int, *queues)
	for i := range cfg.QueueIDs {
		cfg.QueueIDs[i] = i
	}

	eng, err := engine.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfigError
	}
	eng.SetCallback(callbackForMode(mode, *verbose), nil)

	if err := eng.Start(); err != nil {
		code := exitAttachFailure
		if engErr, ok := err.(*api.Error); ok && engErr.Code == api.ErrCodePermissionDenied {
			code = exitPermissionDenied
		}
		fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
		return code
	}

	stop := waitForStop(*duration)
	<-stop

	if err := eng.Destroy(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		return exitRuntimeError
	}

	stats := eng.GetStats()
	fmt.Printf("total_packets=%d steered_packets=%d dropped_packets=%d anomaly_signals=%d\n",
		stats.Get(api.StatTotalPackets), stats.Get(api.StatSteeredPackets),
		stats.Get(api.StatDroppedPackets), stats.Get(api.StatAnomalySignals))
	return exitOK
}

// waitForStop returns a channel that fires on SIGINT/SIGTERM or after
// durationSec seconds, whichever comes first (0 disables the timer).
func waitForStop(durationSec int) <-chan struct{} {
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if durationSec > 0 {
			select {
			case <-sigCh:
			case <-time.After(time.Duration(durationSec) * time.Second):
			}
		} else {
			<-sigCh
		}
		close(done)
	}()
	return done
}

// callbackForMode returns the analysis callback appropriate to the CLI's
// positional mode argument. With --verbose, classify prints every sampled
// record and anomaly prints only records the classification policy tagged
// suspicious; without it nothing is printed. security additionally treats a
// suspicious record as an anomaly signal by returning a nonzero result,
// which the drainer folds into anomaly_signals.
func callbackForMode(mode string, verbose bool) api.AnalysisCallback {
	return func(record *api.FeatureRecord, _ any) int {
		switch mode {
		case "anomaly", "security":
			if record.TrafficClass != api.TrafficSuspicious {
				return 0
			}
			if verbose {
				fmt.Printf("suspicious flow=%016x proto=%d entropy=%d\n",
					record.FlowHash, record.Protocol, record.PacketEntropy)
			}
			if mode == "security" {
				return 1
			}
			return 0
		default:
			if verbose {
				fmt.Printf("flow=%016x proto=%d len=%d class=%s dir=%s\n",
					record.FlowHash, record.Protocol, record.PktLen, record.TrafficClass, record.Direction)
			}
			return 0
		}
	}
}
