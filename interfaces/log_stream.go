package interfaces

import "context"

// LogStream is the push variant of the backtest service: runs are triggered
// with an event and every log line arrives as its own message.
type LogStream interface {
	Connect(ctx context.Context, onLine func(line string)) error
	RunBacktest(ctx context.Context) error
	// Done is closed once the current connection is gone, whether the server
	// dropped it or Close was called. Before Connect it is already closed.
	Done() <-chan struct{}
	Close() error
}
