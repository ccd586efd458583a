package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	log "github.com/sirupsen/logrus"
)

func accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, context.Context, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, nil, err
	}
	return c, r.Context(), nil
}

// StreamStatus sends the current status and every later one as JSON text
// messages until the client goes away or the service closes.
func StreamStatus(s *Service, w http.ResponseWriter, r *http.Request) {
	if s.monitor == nil {
		http.Error(w, "monitor not attached", http.StatusServiceUnavailable)
		return
	}

	c, ctx, err := accept(w, r)
	if err != nil {
		log.WithError(err).Error("Failed to accept websocket client")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	// The client never sends data; CloseRead handles control frames and
	// cancels ctx once the client goes away.
	ctx = c.CloseRead(ctx)

	statuses, unsub := s.monitor.Subscribe()
	defer unsub()

	log.WithField("remote", r.RemoteAddr).Debug("Status stream opened")

	for {
		select {
		case <-ctx.Done():
			log.WithField("remote", r.RemoteAddr).Debug("Status stream closed by client")
			return
		case <-s.done:
			c.Close(websocket.StatusGoingAway, "shutting down")
			return
		case st, ok := <-statuses:
			if !ok {
				c.Close(websocket.StatusGoingAway, "monitor closed")
				return
			}
			b, err := json.Marshal(st)
			if err != nil {
				log.WithError(err).Error("Failed to encode status")
				return
			}
			if err := c.Write(ctx, websocket.MessageText, b); err != nil {
				log.WithError(err).WithField("remote", r.RemoteAddr).Debug("Status stream write failed")
				return
			}
		}
	}
}
