package nats

import (
	"context"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjects(t *testing.T) {
	stream := NewLogStream("nats://127.0.0.1:4222", "")
	assert.Equal(t, "backtest.run_backtest", stream.RunSubject())
	assert.Equal(t, "backtest.log", stream.LogSubject())

	stream = NewLogStream("nats://127.0.0.1:4222", "eurusd")
	assert.Equal(t, "eurusd.log", stream.LogSubject())
}

func TestRunBeforeConnect(t *testing.T) {
	stream := NewLogStream("nats://127.0.0.1:4222", "backtest")
	assert.Error(t, stream.RunBacktest(context.Background()))
	assert.NoError(t, stream.Close())
}

func TestConnectUnreachableServer(t *testing.T) {
	stream := NewLogStream("nats://127.0.0.1:1", "backtest")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, stream.Connect(ctx, func(string) {}))
}

func TestLogStreamRoundTrip(t *testing.T) {
	server := natsserver.RunRandClientPortServer()
	defer server.Shutdown()

	backend, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer backend.Close()
	runs, err := backend.SubscribeSync("eurusd.run_backtest")
	require.NoError(t, err)
	require.NoError(t, backend.Flush())

	var mutex sync.Mutex
	var received []string
	stream := NewLogStream(server.ClientURL(), "eurusd")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, stream.Connect(ctx, func(line string) {
		mutex.Lock()
		defer mutex.Unlock()
		received = append(received, line)
	}))
	defer stream.Close()

	require.NoError(t, stream.RunBacktest(ctx))
	msg, err := runs.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "eurusd.run_backtest", msg.Subject)

	lines := []string{"Loading EURUSD=X", "\tTrades: 12", "", "Maximum Draw-down: 4.2%"}
	for _, line := range lines {
		require.NoError(t, backend.Publish("eurusd.log", []byte(line)))
	}
	require.NoError(t, backend.Publish("eurusd.other", []byte("not a log line")))
	require.NoError(t, backend.Flush())

	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(received) == len(lines)
	}, 2*time.Second, 5*time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()
	assert.Equal(t, lines, received)
}

func TestDoneClosesOnClose(t *testing.T) {
	server := natsserver.RunRandClientPortServer()
	defer server.Shutdown()

	stream := NewLogStream(server.ClientURL(), "")
	select {
	case <-stream.Done():
	default:
		t.Fatal("Done should be closed before Connect")
	}

	require.NoError(t, stream.Connect(context.Background(), func(string) {}))
	done := stream.Done()
	select {
	case <-done:
		t.Fatal("Done closed while connected")
	default:
	}

	require.NoError(t, stream.Close())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after Close")
	}
	assert.Error(t, stream.RunBacktest(context.Background()))
}
