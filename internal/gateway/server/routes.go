package server

import (
	"net/http"

	"focuslog/internal/gateway/handler"
	"focuslog/internal/gateway/handler/rpc"
	"focuslog/internal/gateway/middleware"
)

func NewMux(
	focusHandler *handler.FocusHandler,
	focusRPC *rpc.FocusHandler,
	feedHandler *rpc.FeedHandler,
) http.Handler {
	mux := http.NewServeMux()

	// JSON API
	mux.HandleFunc("/api/save", focusHandler.HandleSave)
	mux.HandleFunc("/api/save/", focusHandler.HandleSave)
	mux.HandleFunc("/api/today", focusHandler.HandleToday)
	mux.HandleFunc("/api/subjects", focusHandler.HandleSubjects)
	mux.HandleFunc("/api/history", focusHandler.HandleHistory)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	// RPC Handlers
	mux.Handle(focusRPC.Handler())

	// Live feed
	mux.HandleFunc("/ws/feed", feedHandler.HandleFeedWS)

	// Middleware
	return middleware.AccessLog(middleware.CORS(mux))
}
