package capture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/momentics/packetengine/api"
)

func TestSink_CapsAtMaxFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	sink, err := NewSink(path, 65535, 2)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	defer sink.Close()

	frame := make([]byte, 64)
	for i := 0; i < 5; i++ {
		if err := sink.Write(frame, api.FeatureRecord{}); err != nil {
			t.Fatalf("Write #%d: %v", i, err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// 24-byte file header plus two records of 16-byte header + 64 bytes each.
	if want := int64(24 + 2*(16+64)); info.Size() != want {
		t.Fatalf("pcap file size = %d, want %d (only maxFrames=2 records)", info.Size(), want)
	}
	if sink.SessionID() == "" {
		t.Fatal("expected a non-empty session id")
	}
}

func TestSink_WriteFailsAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcap")
	sink, err := NewSink(path, 65535, 10)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sink.Write(make([]byte, 16), api.FeatureRecord{}); err == nil {
		t.Fatal("expected Write to fail on a closed sink")
	}
}
