package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aredoff/proxycheck/internal/parser"
	"github.com/aredoff/proxycheck/internal/pool"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 << 20
)

// session runs at most one batch per WebSocket connection. Starting a new batch
// cancels the previous one; closing the connection cancels the current one.
type session struct {
	conn   *websocket.Conn
	engine Engine
	logger zerolog.Logger

	writeMu sync.Mutex

	mu    sync.Mutex
	batch *pool.Scheduler
	wg    sync.WaitGroup
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade websocket")
		return
	}

	ss := &session{
		conn:   conn,
		engine: s.engine,
		logger: s.logger.With().Str("remote_addr", conn.RemoteAddr().String()).Logger(),
	}
	ss.logger.Info().Msg("websocket client connected")
	ss.readPump()
}

func (ss *session) readPump() {
	defer func() {
		ss.cancel()
		ss.wg.Wait()
		ss.conn.Close()
		ss.logger.Info().Msg("websocket client disconnected")
	}()

	ss.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := ss.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ss.logger.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			ss.send(Message{Type: TypeError, Data: ErrorBody{Error: "invalid message"}})
			continue
		}

		switch msg.Type {
		case TypeStart:
			ss.start(parser.SplitList(msg.Proxies))
		case TypeCancel:
			ss.cancel()
		default:
			ss.send(Message{Type: TypeError, Data: ErrorBody{Error: "unknown message type " + msg.Type}})
		}
	}
}

func (ss *session) start(list []string) {
	id := uuid.NewString()
	batch := ss.engine.NewBatch(list)

	ss.mu.Lock()
	if ss.batch != nil {
		ss.batch.Cancel()
	}
	ss.batch = batch
	ss.mu.Unlock()

	ss.logger.Info().Str("batch_id", id).Int("total", len(list)).Msg("batch requested")
	ss.send(Message{Type: TypeStarted, ID: id, Data: BatchStatus{Total: len(list)}})

	batch.OnComplete(func(completed, total int) {
		ss.send(Message{Type: TypeProgress, ID: id, Data: BatchStatus{Completed: completed, Total: total}})
	})
	// A fresh batch cannot fail to start.
	_ = batch.Start(context.Background())

	ss.wg.Add(1)
	go func() {
		defer ss.wg.Done()
		ss.forward(id, batch)
	}()
}

func (ss *session) forward(id string, batch *pool.Scheduler) {
	for o := range batch.Outcomes() {
		ss.send(Message{Type: TypeResult, ID: id, Data: o})
	}
	batch.Wait()

	completed, total := batch.Progress()
	ss.send(Message{Type: TypeDone, ID: id, Data: BatchStatus{
		Completed: completed,
		Total:     total,
		Cancelled: batch.Cancelled(),
	}})
}

func (ss *session) cancel() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.batch != nil {
		ss.batch.Cancel()
	}
}

func (ss *session) send(msg Message) {
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()

	_ = ss.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ss.conn.WriteJSON(msg); err != nil {
		ss.logger.Debug().Err(err).Str("type", msg.Type).Msg("failed to write websocket message")
	}
}
