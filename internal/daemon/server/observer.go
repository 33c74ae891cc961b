package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 1 << 20
	directQueueLen = 8
)

// handleWebSocket serves one bidirectional observer. Bus events and replies
// meant only for this observer share a single writer goroutine.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe()
	logger := s.logger.WithFields(logrus.Fields{"observer": sub.ID, "remote": r.RemoteAddr})
	logger.Info("Observer connected")

	direct := make(chan models.Event, directQueueLen)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(conn, sub, direct, logger)
	}()

	s.readLoop(conn, direct, writerDone, logger)

	// Closing the subscription ends the writer if the reader stopped first.
	s.bus.Unsubscribe(sub)
	<-writerDone
	logger.Info("Observer disconnected")
}

func (s *Server) readLoop(conn *websocket.Conn, direct chan<- models.Event, writerDone <-chan struct{}, logger *logrus.Entry) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("WebSocket read failed")
			}
			return
		}

		var frame models.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logger.WithError(err).Warn("Ignoring malformed frame")
			continue
		}

		switch frame.Event {
		case models.FrameSendMessage:
			var msg models.SendMessageData
			if len(frame.Data) > 0 {
				if err := json.Unmarshal(frame.Data, &msg); err != nil {
					logger.WithError(err).Warn("Ignoring malformed send_message")
					continue
				}
			}
			s.Submit(msg.Message)

		case models.FrameGetMessageHistory:
			ev := models.MessageHistoryEvent(s.store.History.Snapshot())
			select {
			case direct <- ev:
			case <-writerDone:
				return
			}

		default:
			logger.WithField("event", frame.Event).Debug("Ignoring unknown frame")
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, sub *bus.Subscription, direct <-chan models.Event, logger *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	// A failed write ends the reader too.
	defer conn.Close()

	for {
		select {
		case ev, ok := <-sub.C():
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				logger.WithError(err).Debug("WebSocket write failed")
				return
			}
		case ev := <-direct:
			if err := writeEvent(conn, ev); err != nil {
				logger.WithError(err).Debug("WebSocket write failed")
				return
			}
		case <-s.closing:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, ev models.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

// handleStream provides Server-Sent Events (SSE) for one receive-only observer.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Ensure the connection supports flushing
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	// Send initial ping to confirm connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	logger := s.logger.WithField("observer", sub.ID)
	logger.Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-s.closing:
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.WithError(err).Error("Failed to marshal event")
				continue
			}
			// SSE format: "data: {json}\n\n"
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
