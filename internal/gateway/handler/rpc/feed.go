package rpc

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"focuslog/internal/focus"
	"focuslog/internal/gateway/service/feed"
)

// FeedHandler streams accumulation events over a websocket.
type FeedHandler struct {
	hub *feed.Hub
	now func() time.Time
}

func NewFeedHandler(hub *feed.Hub) *FeedHandler {
	return &FeedHandler{hub: hub, now: time.Now}
}

const (
	feedWSWriteWait = 10 * time.Second
	feedWSPongWait  = 60 * time.Second
	feedWSPingEvery = (feedWSPongWait * 9) / 10
)

var feedWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type feedWSHello struct {
	Type string `json:"type"`
	Day  string `json:"day"`
}

func (h *FeedHandler) HandleFeedWS(w http.ResponseWriter, r *http.Request) {
	conn, err := feedWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(feedWSPongWait)); err != nil {
		log.Printf("feed ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedWSPongWait))
	})

	events := h.hub.Subscribe(ctx)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer conn.Close()
		ticker := time.NewTicker(feedWSPingEvery)
		defer ticker.Stop()

		if err := writeFeedWS(conn, feedWSHello{Type: "subscribed", Day: focus.ResolveDayWindow(h.now()).Today}); err != nil {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := writeFeedWS(conn, ev); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(feedWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// The feed is one-way; reads only drive pong handling and close detection.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cancel()
			<-writerDone
			return
		}
	}
}

func writeFeedWS(conn *websocket.Conn, out any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(feedWSWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(out)
}
