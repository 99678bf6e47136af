// ABOUTME: HTTP handlers for account management, web sessions and the chat channels
// ABOUTME: Every chat endpoint runs resolve, namespace, backend call and audit in that order

package gateway

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"strings"

	"github.com/2389/rag-gateway/internal/auth"
	"github.com/2389/rag-gateway/internal/backend"
	"github.com/2389/rag-gateway/internal/channel"
	"github.com/2389/rag-gateway/internal/store"
)

// maxChatBodyBytes bounds a chat request body.
const maxChatBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// CredentialsRequest is the JSON body of POST /register and POST /token.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the JSON response for POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ChatRequest is the JSON body shared by every chat endpoint.
type ChatRequest struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	ThreadID string `json:"thread_id"`
}

// ChatResponse is the JSON response of every chat endpoint.
type ChatResponse struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// handleHealth returns 200 OK if the server is running.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the store answers a ping.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := g.store.Ping(r.Context()); err != nil {
		g.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleRegister creates a credential-store user.
func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := parseCredentials(r.Body)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEmail(creds.Email); err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		g.logger.Error("hashing password", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user, err := g.store.CreateUser(r.Context(), creds.Email, hash)
	if errors.Is(err, store.ErrEmailTaken) {
		sendJSONError(w, http.StatusBadRequest, "email already registered")
		return
	}
	if err != nil {
		g.logger.Error("creating user", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.logger.Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "user registered successfully"})
}

// handleToken exchanges valid credentials for a bearer token.
func (g *Gateway) handleToken(w http.ResponseWriter, r *http.Request) {
	creds, err := parseCredentials(r.Body)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := g.store.GetUserByEmail(r.Context(), creds.Email)
	if errors.Is(err, store.ErrNotFound) {
		// keep response timing close to the wrong-password path
		auth.BurnPasswordCheck(creds.Password)
		sendJSONError(w, http.StatusBadRequest, "incorrect email or password")
		return
	}
	if err != nil {
		g.logger.Error("looking up user", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, creds.Password); err != nil {
		sendJSONError(w, http.StatusBadRequest, "incorrect email or password")
		return
	}

	token, err := g.tokens.Issue(user.Email)
	if err != nil {
		g.logger.Error("issuing token", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer"})
}

// handleOpenSession mints an opaque session id and sets it as the web cookie.
// The phone_number query parameter is accepted but not stored.
func (g *Gateway) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := generateSecureToken(32)
	if err != nil {
		g.logger.Error("generating session id", "error", err)
		sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.config.Web.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge := int(g.config.Web.SessionMaxAge.Seconds()); maxAge > 0 {
		cookie.MaxAge = maxAge
	}
	http.SetCookie(w, cookie)

	g.logger.Debug("web session opened", "has_phone_number", r.URL.Query().Get("phone_number") != "")
	writeJSON(w, http.StatusOK, MessageResponse{Message: "session started"})
}

// handleCloseSession clears the web cookie.
func (g *Gateway) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.config.Web.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "session cleared"})
}

// handleChat returns the chat handler for one channel. proof extracts the
// channel's credential from the request; everything after is shared.
func (g *Gateway) handleChat(proof func(*http.Request) channel.Proof) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ident, err := g.resolver.Resolve(ctx, proof(r))
		if err != nil {
			g.sendError(w, err)
			return
		}

		req, err := parseChatRequest(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
		if errors.Is(err, errBodyTooLarge) {
			sendJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		if err != nil {
			sendJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		normalized := backend.Request{
			ID:        req.ID,
			ThreadKey: channel.ThreadKey(ident, req.ThreadID),
			Question:  req.Question,
		}

		ans, err := g.backend.Answer(ctx, normalized)
		if err != nil {
			g.sendError(w, err)
			return
		}
		if ans.ID == "" {
			ans.ID = normalized.ID
		}

		g.recorder.Record(ctx, normalized, ans, ident)

		writeJSON(w, http.StatusOK, ChatResponse{ID: ans.ID, Answer: ans.Answer})
	}
}

// parseCredentials decodes an email/password body.
func parseCredentials(r io.Reader) (*CredentialsRequest, error) {
	var req CredentialsRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return nil, errors.New("email is required")
	}
	if req.Password == "" {
		return nil, errors.New("password is required")
	}
	return &req, nil
}

// validateEmail accepts a bare address only, rejecting display-name forms.
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address")
	}
	return nil
}

// parseChatRequest decodes and validates a ChatRequest.
func parseChatRequest(r io.Reader) (*ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, errors.New("invalid JSON body")
	}
	if req.ID == "" {
		return nil, errors.New("id is required")
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, errors.New("question is required")
	}
	return &req, nil
}

// generateSecureToken generates a cryptographically secure random token.
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
