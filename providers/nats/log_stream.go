package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
)

// LogStream runs backtests over NATS: a run is a message on
// <prefix>.run_backtest and every log line is one message on <prefix>.log.
type LogStream struct {
	url          string
	prefix       string
	mutex        sync.Mutex
	conn         *nats.Conn
	subscription *nats.Subscription
	done         chan struct{}
}

func NewLogStream(url string, prefix string) *LogStream {
	if prefix == "" {
		prefix = "backtest"
	}
	return &LogStream{url: url, prefix: prefix}
}

func (s *LogStream) RunSubject() string { return s.prefix + ".run_backtest" }
func (s *LogStream) LogSubject() string { return s.prefix + ".log" }

// Connect replaces any previous connection. The client reconnects on its own;
// Done only closes once it gives up or Close is called.
func (s *LogStream) Connect(ctx context.Context, onLine func(line string)) error {
	if err := s.Close(); err != nil {
		helpers.Logger.Warnln("nats: " + err.Error())
	}

	done := make(chan struct{})
	options := []nats.Option{
		nats.Name("aobacktester"),
		nats.ClosedHandler(func(*nats.Conn) {
			close(done)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				helpers.Logger.Warnln("nats: disconnected: " + err.Error())
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			helpers.Logger.Infoln("nats: reconnected to " + conn.ConnectedUrl())
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		options = append(options, nats.Timeout(time.Until(deadline)))
	}

	conn, err := nats.Connect(s.url, options...)
	if err != nil {
		return fmt.Errorf("error: nats connect %s: %w", s.url, err)
	}

	subscription, err := conn.Subscribe(s.LogSubject(), func(msg *nats.Msg) {
		onLine(string(msg.Data))
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("error: nats subscribe %s: %w", s.LogSubject(), err)
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return fmt.Errorf("error: nats flush: %w", err)
	}

	s.mutex.Lock()
	s.conn = conn
	s.subscription = subscription
	s.done = done
	s.mutex.Unlock()
	return nil
}

func (s *LogStream) RunBacktest(ctx context.Context) error {
	s.mutex.Lock()
	conn := s.conn
	s.mutex.Unlock()
	if conn == nil || conn.IsClosed() {
		return fmt.Errorf("error: nats not connected")
	}
	if err := conn.Publish(s.RunSubject(), nil); err != nil {
		return fmt.Errorf("error: nats publish %s: %w", s.RunSubject(), err)
	}
	if _, ok := ctx.Deadline(); !ok {
		return conn.Flush()
	}
	return conn.FlushWithContext(ctx)
}

func (s *LogStream) Done() <-chan struct{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.done == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.done
}

func (s *LogStream) Close() error {
	s.mutex.Lock()
	conn, subscription := s.conn, s.subscription
	s.conn, s.subscription = nil, nil
	s.mutex.Unlock()
	if conn == nil {
		return nil
	}
	var err error
	if subscription != nil && !conn.IsClosed() {
		err = subscription.Unsubscribe()
	}
	conn.Close()
	return err
}

var _ interfaces.LogStream = (*LogStream)(nil)
