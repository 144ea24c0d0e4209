package encbridge

import (
	"math"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{0, "0"},
		{3, "3"},
		{-1, "-1"},
		{math.MaxInt32, "2147483647"},
		{StatusUnknownHandle, "unknown-handle"},
		{StatusBadBuffer, "bad-buffer"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int32(tt.status), got, tt.want)
		}
	}
}

func TestStatus_Synthesized(t *testing.T) {
	if !StatusUnknownHandle.Synthesized() || !StatusBadBuffer.Synthesized() {
		t.Fatal("sentinels must report Synthesized")
	}
	for _, s := range []Status{0, 1, -1, -30, math.MaxInt32, math.MinInt32 + 2} {
		if s.Synthesized() {
			t.Errorf("Status(%d) should not be synthesized", int32(s))
		}
	}
	if StatusUnknownHandle == StatusBadBuffer {
		t.Fatal("sentinels must be distinct")
	}
}

func TestSinkFuncs(t *testing.T) {
	var got []byte
	s := SinkFuncs{
		WriteFunc: func(p []byte) Status {
			got = append(got, p...)
			return Status(len(p))
		},
		CloseFunc: func() Status { return -7 },
	}

	if st := s.Write([]byte{1, 2}); st != 2 {
		t.Fatalf("Write = %d, want 2", st)
	}
	if st := s.Close(); st != -7 {
		t.Fatalf("Close = %d, want -7", st)
	}
	if len(got) != 2 {
		t.Fatalf("WriteFunc saw %d bytes", len(got))
	}

	var empty SinkFuncs
	if empty.Write(nil) != 0 || empty.Close() != 0 {
		t.Fatal("nil funcs should return 0")
	}
}
