// ABOUTME: HTTP route table for the gateway built on chi
// ABOUTME: Maps each channel endpoint to the shared chat pipeline with its proof extractor

package gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389/rag-gateway/internal/channel"
)

// sessionCookieName is the web channel's session cookie.
const sessionCookieName = "session_id"

// routes builds the gateway's HTTP handler.
func (g *Gateway) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(g.logger))

	r.Get("/health", g.handleHealth)
	r.Get("/health/ready", g.handleReady)

	r.Post("/register", g.handleRegister)
	r.Post("/token", g.handleToken)

	publicChat := g.handleChat(bearerProof)
	r.Post("/public/chat", publicChat)
	r.Post("/chat/send-message", publicChat)

	r.Route("/web", func(web chi.Router) {
		web.Post("/session", g.handleOpenSession)
		web.Delete("/session", g.handleCloseSession)
		web.Post("/chat", g.handleChat(cookieProof))
	})

	r.Post("/bot/chat", g.handleChat(chatIDProof))

	return r
}

func bearerProof(r *http.Request) channel.Proof {
	return channel.BearerProof(r.Header.Get("Authorization"))
}

func cookieProof(r *http.Request) channel.Proof {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return channel.CookieProof("")
	}
	return channel.CookieProof(c.Value)
}

func chatIDProof(r *http.Request) channel.Proof {
	return channel.ChatProof(r.URL.Query().Get("chat_id"))
}

// requestLogger logs one line per request at debug level, warn for 5xx.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
