package feed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSFeed is a gorilla/websocket-backed Feed. Its connect/read/reconnect
// structure is grounded directly on the teacher's
// internal/binance/user_data_stream.go UserDataStream: an infinite
// connect loop that dials, reads until the connection drops, and
// retries with a fixed backoff, all guarded by one mutex over the
// running flag and the live connection.
type WSFeed struct {
	mu        sync.RWMutex
	url       string
	topics    []string
	logger    zerolog.Logger
	isRunning bool
	conn      *websocket.Conn

	dialBackoff time.Duration
	readBackoff time.Duration
}

// NewWSFeed builds a feed that will dial wsURL and subscribe to topics
// once Start is called.
func NewWSFeed(wsURL string, topics []string, logger zerolog.Logger) *WSFeed {
	return &WSFeed{
		url:         wsURL,
		topics:      topics,
		logger:      logger.With().Str("component", "feed").Logger(),
		dialBackoff: 5 * time.Second,
		readBackoff: 3 * time.Second,
	}
}

// Start dials the feed and begins delivering messages until ctx is
// cancelled or Stop is called. Runs its connect loop on its own
// goroutine; Start returns immediately.
func (f *WSFeed) Start(ctx context.Context, handler func(Message)) {
	f.mu.Lock()
	if f.isRunning {
		f.mu.Unlock()
		return
	}
	f.isRunning = true
	f.mu.Unlock()

	go f.connectLoop(ctx, handler)

	go func() {
		<-ctx.Done()
		f.Stop()
	}()
}

// Stop tears down the live connection, if any, and halts the connect
// loop the next time it checks isRunning.
func (f *WSFeed) Stop() {
	f.mu.Lock()
	f.isRunning = false
	conn := f.conn
	f.conn = nil
	f.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

func (f *WSFeed) connectLoop(ctx context.Context, handler func(Message)) {
	for {
		f.mu.RLock()
		running := f.isRunning
		f.mu.RUnlock()
		if !running || ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", f.url).Msg("feed dial failed, retrying")
			time.Sleep(f.dialBackoff)
			continue
		}

		f.subscribe(conn)

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()

		f.logger.Info().Str("url", f.url).Int("topics", len(f.topics)).Msg("feed connected")

		f.readLoop(conn, handler)

		f.mu.RLock()
		running = f.isRunning
		f.mu.RUnlock()
		if !running {
			return
		}

		f.logger.Warn().Msg("feed connection lost, reconnecting")
		time.Sleep(f.readBackoff)
	}
}

// subscribe sends one subscription frame per topic. The exact
// subscribe envelope is the external transport's concern (spec.md §1);
// this shape — {"event": "subscribe", "topic": "..."} — is the
// minimal one consistent with the {topic, data} delivery schema in
// §6.2 and is swappable per deployment.
func (f *WSFeed) subscribe(conn *websocket.Conn) {
	for _, topic := range f.topics {
		msg := map[string]string{"event": "subscribe", "topic": topic}
		if err := conn.WriteJSON(msg); err != nil {
			f.logger.Warn().Err(err).Str("topic", topic).Msg("subscribe failed")
		}
	}
}

func (f *WSFeed) readLoop(conn *websocket.Conn, handler func(Message)) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				f.logger.Info().Msg("feed connection closed normally")
			} else {
				f.logger.Warn().Err(err).Msg("feed read error")
			}
			return
		}
		f.dispatch(raw, handler)
	}
}

func (f *WSFeed) dispatch(raw []byte, handler func(Message)) {
	var env struct {
		Topic string         `json:"topic"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	if env.Data == nil {
		return
	}
	handler(Message{Topic: env.Topic, Data: env.Data})
}
