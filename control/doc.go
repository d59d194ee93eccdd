// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration store, statistics counters, Prometheus export and debug
// probes for the packet engine: the atomically-updated knobs the
// classifier and drainer read on every packet, and the read side operators
// use to observe and reconfigure a running engine.
package control
