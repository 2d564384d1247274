package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/chat-widget/backend/internal/handler/chat"
	middlewarePkg "github.com/zhouzirui/chat-widget/backend/internal/middleware"
	chatService "github.com/zhouzirui/chat-widget/backend/internal/service/chat"
	"github.com/zhouzirui/chat-widget/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, allowedOrigins string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(allowedOrigins))

	chatHandler := chat.New(chatSvc)
	wsHandler := chat.NewWebSocketHandler(chatSvc, allowedOrigins)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"model":  chatSvc.Model(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
	})

	return r
}
