package main

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/middleware"
)

type routerOptions struct {
	failOpen bool
	logger   *zap.Logger
	metrics  http.Handler
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func newRouter(engine *goGate.Engine, o routerOptions) http.Handler {
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Get("/", homeHandler)
	r.Post("/users", registerHandler(engine, o.logger))
	r.Post("/token", tokenHandler(engine, o.logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard(engine,
			middleware.WithFailOpen(o.failOpen),
			middleware.WithLogger(o.logger),
		))
		r.Get("/users/me", meHandler(engine, o.logger))
	})

	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics)
	}
	return r
}

func homeHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"hello": "world"})
}

func registerHandler(engine *goGate.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req goGate.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}

		ctx := goGate.WithClientIP(r.Context(), middleware.ClientIP(r))
		user, err := engine.Register(ctx, req)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, user)
		case errors.Is(err, goGate.ErrUserExists):
			writeError(w, http.StatusConflict, "Username already registered")
		case errors.Is(err, goGate.ErrUserInvalid), errors.Is(err, goGate.ErrPasswordPolicy):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, goGate.ErrUserStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		default:
			logger.Error("register failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

// tokenHandler accepts the OAuth2 password form (username, password) or the
// same fields as JSON.
func tokenHandler(engine *goGate.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := readCredentials(r)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, "username and password are required")
			return
		}

		ctx := goGate.WithClientIP(r.Context(), middleware.ClientIP(r))
		token, err := engine.Login(ctx, username, password)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
		case errors.Is(err, goGate.ErrInvalidCredentials):
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Incorrect username or password")
		case errors.Is(err, goGate.ErrUserStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		default:
			logger.Error("login failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

func readCredentials(r *http.Request) (string, string, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", "", false
		}
		return body.Username, body.Password, body.Username != "" && body.Password != ""
	}

	if err := r.ParseForm(); err != nil {
		return "", "", false
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")
	return username, password, username != "" && password != ""
}

func meHandler(engine *goGate.Engine, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		user, err := engine.GetUser(r.Context(), id)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, user)
		case errors.Is(err, goGate.ErrUserNotFound):
			// valid token for a user this process no longer knows
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Not authenticated")
		case errors.Is(err, goGate.ErrUserStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Service unavailable")
		default:
			logger.Error("get user failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
