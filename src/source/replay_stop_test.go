package source_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemetry-anomaly-monitor/src/ingest"
	"telemetry-anomaly-monitor/src/source"
	"telemetry-anomaly-monitor/src/store"
	"telemetry-anomaly-monitor/src/types"
)

func TestServiceStopsWhileStdinReplayIsWaiting(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer source.SwapStdin(r)()

	records := store.NewMemoryStore()
	svc := ingest.NewService(ingest.Options{
		Source:  &source.Replay{Path: "-"},
		Records: records,
		Raw:     &store.MemoryLog[types.RawRecord]{},
		Errors:  &store.MemoryLog[types.ParseErrorRecord]{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	_, err = w.WriteString("T:50.00,V:5.00,S:NORMAL\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		recs, _ := records.ReadAllOrderedByTime(context.Background())
		return len(recs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("Run still blocked after cancel; state=%s", svc.State())
	}
	assert.Equal(t, ingest.Stopped, svc.State())
}
