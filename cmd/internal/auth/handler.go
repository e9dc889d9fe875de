package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"besocial/cmd/identity"
)

// Original product rule; hashing itself imposes no minimum.
const minPasswordLen = 6

// Handler wires HTTP auth endpoints to the user store and token manager.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	users    identity.Store
	tokens   AccessTokenManager
	resolver *Resolver

	// Dummy hash for timing-resistant login checks.
	dummyHash string
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, users identity.Store, tokens AccessTokenManager) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if users == nil || tokens == nil {
		return nil, ErrConfig
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		users:    users,
		tokens:   tokens,
		resolver: NewResolver(tokens, users),
	}

	if hash, err := identity.HashPassword("dummy-password-for-timing-only", identity.DefaultArgon2idParams()); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Resolver returns the identity resolver backed by this handler's token manager.
func (h *Handler) Resolver() *Resolver { return h.resolver }

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/auth/signup", h.handleSignup)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.HandleFunc("/api/auth/logout", h.handleLogout)
	mux.HandleFunc("/api/auth/me", h.handleMe)
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string          `json:"token"`
	User  identity.Public `json:"user"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := identity.NormalizeUsername(req.Username)
	email := identity.NormalizeEmail(req.Email)

	if !identity.ValidEmail(email) {
		WriteError(w, http.StatusBadRequest, "invalid_email", "invalid email address")
		return
	}
	if !identity.ValidUsername(username) {
		WriteError(w, http.StatusBadRequest, "invalid_username", "invalid username")
		return
	}
	if len(req.Password) < minPasswordLen {
		WriteError(w, http.StatusBadRequest, "weak_password", "password must be at least 6 characters long")
		return
	}

	hash, err := identity.HashPassword(req.Password, identity.DefaultArgon2idParams())
	if err != nil {
		h.log.Error("auth.signup.hash.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	u, err := h.users.Create(r.Context(), identity.User{
		FullName:     req.FullName,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, identity.ErrConflict) {
		WriteError(w, http.StatusBadRequest, "taken", "username or email is already taken")
		return
	}
	if err != nil {
		h.log.Error("auth.signup.create.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	token, _, err := h.tokens.Issue(u.ID, time.Now().UTC())
	if err != nil {
		h.log.Error("auth.signup.token.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.log.Info("auth.signup", "user_id", u.ID, "username", u.Username)
	WriteJSON(w, http.StatusOK, sessionResponse{Token: token, User: u.Public()})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := DecodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := identity.NormalizeUsername(req.Username)
	if username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	u, err := h.users.GetByUsername(r.Context(), username)
	if err != nil {
		// Timing resistance: perform a dummy verify when the user is missing.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(req.Password, h.dummyHash)
		}
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	ok, err := identity.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil || !ok {
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
		return
	}

	token, _, err := h.tokens.Issue(u.ID, time.Now().UTC())
	if err != nil {
		h.log.Error("auth.login.token.fail", "err", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	h.log.Info("auth.login", "user_id", u.ID)
	WriteJSON(w, http.StatusOK, sessionResponse{Token: token, User: u.Public()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// Tokens are stateless; logout is the client discarding its token.
	WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, err := h.resolver.UserFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing token")
		return
	}
	WriteJSON(w, http.StatusOK, u.Public())
}
