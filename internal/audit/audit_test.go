package audit

import (
	"context"
	"testing"
	"time"
)

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.Record(Entry{RequestID: "req_1"})
}

func TestStore_WaitWithoutPending(t *testing.T) {
	s := NewStore(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	s.Wait(ctx)
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Wait should return immediately with nothing pending")
	}
}
