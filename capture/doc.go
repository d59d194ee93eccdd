// Package capture implements the optional PCAP capture sink tee'd
// alongside the drainer's analysis callback, capped at a configured frame
// count.
package capture
