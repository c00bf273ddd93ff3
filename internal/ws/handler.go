package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avalon-p2p/avalon-backend/internal/hub"
	"github.com/avalon-p2p/avalon-backend/internal/protocol"
	"github.com/avalon-p2p/avalon-backend/internal/session"
)

const (
	writeTimeout = 3 * time.Second
	// Rounds can stay open for minutes while players deliberate, so the read
	// deadline is generous.
	idleTimeout = 10 * time.Minute
)

// Handler attaches one peer to a room. The websocket link is the concrete
// message channel: ordered per link, no delivery guarantee after disconnect.
func Handler(h *hub.Hub, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "player"
		}

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		peerID := uuid.NewString()
		out := make(chan protocol.Message, 16)

		sess.Inbox() <- session.Join{PeerID: peerID, Name: name, Outbox: out}
		defer func() { sess.Inbox() <- session.Leave{PeerID: peerID} }()

		log.Info("peer connected", zap.String("room", code), zap.String("peer", peerID))

		// Writer goroutine drains the session outbox onto the link.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for m := range out {
				payload, err := json.Marshal(m)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), idleTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Any other failure counts as a verified disconnect; the
				// deferred Leave shrinks the eligible voter set.
				log.Debug("peer read failed", zap.String("peer", peerID), zap.Error(err))
				return
			}

			var m protocol.Message
			if err := json.Unmarshal(data, &m); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"error","error":"bad json"}`))
				continue
			}

			sess.Inbox() <- session.FromPeer{PeerID: peerID, Msg: m}
		}
	}
}
