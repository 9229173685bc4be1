package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gitlab.com/aoterocom/AOBacktester/helpers"
	"gitlab.com/aoterocom/AOBacktester/interfaces"
)

// Engine.IO v4 packet types, as the first byte of a text frame.
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
)

// Socket.IO packet types, second byte of an engine message.
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketConnectError = '4'
)

const (
	runBacktestEvent = "run_backtest"
	logEvent         = "log"
	handshakeTimeout = 10 * time.Second
)

// LogStream is a minimal socket.io client over the websocket transport,
// enough to emit run_backtest and receive log events on the default namespace.
// It can be connected again after the server drops it or after Close.
type LogStream struct {
	endpoint string
	dialer   *websocket.Dialer
	mutex    sync.Mutex
	current  *session
}

// session is one websocket connection and its reader.
type session struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex
	closing    chan struct{}
	closeOnce  sync.Once
	done       chan struct{}
}

func NewLogStream(baseURL string) (*LogStream, error) {
	endpoint, err := websocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &LogStream{
		endpoint: endpoint,
		dialer:   &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}, nil
}

func websocketURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("error: invalid socket.io base url %q: %v", baseURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("error: unsupported socket.io scheme %q", u.Scheme)
	}
	u.Path = u.Path + "/socket.io/"
	u.RawQuery = "EIO=4&transport=websocket"
	return u.String(), nil
}

// Connect opens the websocket, joins the default namespace and starts
// delivering log events to onLine from a reader goroutine. A previous
// connection is closed first.
func (s *LogStream) Connect(ctx context.Context, onLine func(line string)) error {
	if err := s.Close(); err != nil {
		helpers.Logger.Warnln("socketio: " + err.Error())
	}

	conn, _, err := s.dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("error: socket.io dial %s: %w", s.endpoint, err)
	}
	sess := &session{
		conn:    conn,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	if err := sess.handshake(); err != nil {
		_ = conn.Close()
		return err
	}

	s.mutex.Lock()
	s.current = sess
	s.mutex.Unlock()

	go sess.readLoop(onLine)
	return nil
}

func (sess *session) handshake() error {
	_ = sess.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer sess.conn.SetReadDeadline(time.Time{})

	_, msg, err := sess.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("error: socket.io open: %w", err)
	}
	if len(msg) == 0 || msg[0] != engineOpen {
		return fmt.Errorf("error: socket.io expected open packet, got %q", string(msg))
	}

	if err := sess.write(string([]byte{engineMessage, socketConnect})); err != nil {
		return err
	}

	for {
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("error: socket.io connect: %w", err)
		}
		if len(msg) == 1 && msg[0] == enginePing {
			if err := sess.write(string(enginePong)); err != nil {
				return err
			}
			continue
		}
		if len(msg) >= 2 && msg[0] == engineMessage {
			switch msg[1] {
			case socketConnect:
				return nil
			case socketConnectError:
				return fmt.Errorf("error: socket.io connect refused: %s", string(msg[2:]))
			}
		}
	}
}

func (sess *session) readLoop(onLine func(line string)) {
	defer close(sess.done)
	defer sess.conn.Close()
	for {
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			select {
			case <-sess.closing:
			default:
				helpers.Logger.Errorln("socketio: " + err.Error())
			}
			return
		}

		switch {
		case len(msg) == 0:
		case msg[0] == enginePing:
			if err := sess.write(string(enginePong)); err != nil {
				helpers.Logger.Warnln("socketio: " + err.Error())
			}
		case msg[0] == engineClose:
			helpers.Logger.Warnln("socketio: server closed the session")
			return
		case msg[0] == engineMessage:
			if len(msg) >= 2 && msg[1] == socketDisconnect {
				helpers.Logger.Warnln("socketio: disconnected by server")
				return
			}
			name, line, ok := ParseEvent(msg)
			if ok && name == logEvent {
				onLine(line)
			}
		}
	}
}

// ParseEvent decodes a text frame like 42["log","line"] into its event name
// and first string argument. Non-string arguments come back as raw JSON.
func ParseEvent(msg []byte) (string, string, bool) {
	if len(msg) < 3 || msg[0] != engineMessage || msg[1] != socketEvent {
		return "", "", false
	}
	payload := msg[2:]
	// skip an ack id, if any
	for len(payload) > 0 && payload[0] >= '0' && payload[0] <= '9' {
		payload = payload[1:]
	}

	var args []json.RawMessage
	if err := json.Unmarshal(payload, &args); err != nil || len(args) == 0 {
		return "", "", false
	}
	var name string
	if err := json.Unmarshal(args[0], &name); err != nil {
		return "", "", false
	}
	if len(args) < 2 {
		return name, "", true
	}
	var line string
	if err := json.Unmarshal(args[1], &line); err != nil {
		return name, string(args[1]), true
	}
	return name, line, true
}

func (s *LogStream) currentSession() *session {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.current
}

func (s *LogStream) RunBacktest(ctx context.Context) error {
	sess := s.currentSession()
	if sess == nil {
		return fmt.Errorf("error: socket.io not connected")
	}
	select {
	case <-sess.done:
		return fmt.Errorf("error: socket.io connection lost")
	default:
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = sess.conn.SetWriteDeadline(deadline)
		defer sess.conn.SetWriteDeadline(time.Time{})
	}
	frame, _ := json.Marshal([]string{runBacktestEvent})
	return sess.write(string([]byte{engineMessage, socketEvent}) + string(frame))
}

func (s *LogStream) Done() <-chan struct{} {
	if sess := s.currentSession(); sess != nil {
		return sess.done
	}
	done := make(chan struct{})
	close(done)
	return done
}

func (sess *session) write(frame string) error {
	sess.writeMutex.Lock()
	defer sess.writeMutex.Unlock()
	if err := sess.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("error: socket.io write: %w", err)
	}
	return nil
}

// Close ends the current connection, if any. The stream can be connected again.
func (s *LogStream) Close() error {
	s.mutex.Lock()
	sess := s.current
	s.current = nil
	s.mutex.Unlock()
	if sess == nil {
		return nil
	}

	var err error
	sess.closeOnce.Do(func() {
		close(sess.closing)
		select {
		case <-sess.done:
			return
		default:
		}
		_ = sess.write(string([]byte{engineMessage, socketDisconnect}))
		if closeErr := sess.conn.Close(); !errors.Is(closeErr, net.ErrClosed) {
			err = closeErr
		}
	})
	return err
}

var _ interfaces.LogStream = (*LogStream)(nil)
