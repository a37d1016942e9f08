package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	halomw "github.com/halolight/halolight/cmd/haloctl/internal/middleware"
	"github.com/halolight/halolight/pkg/sdk"
)

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	User      sdk.User `json:"user"`
}

// WhoamiResponse describes the caller of GET /api/auth/whoami
type WhoamiResponse struct {
	User        sdk.User `json:"user"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

// PermissionResponse is one catalog entry of GET /api/permissions
type PermissionResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// PageResponse acknowledges an allowed navigation
type PageResponse struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func handleForbidden(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func handlePage(p Page) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, PageResponse{Path: p.Path, Title: p.Title})
	}
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, path, http.StatusFound)
	}
}

func handlePermissions(w http.ResponseWriter, _ *http.Request) {
	catalog := sdk.CatalogPermissions()
	resp := make([]PermissionResponse, 0, len(catalog))
	for _, name := range catalog {
		desc, _ := sdk.Describe(name)
		resp = append(resp, PermissionResponse{Name: name, Description: desc})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogin authenticates against the directory and issues an access token
func handleLogin(directory Authenticator, tokens TokenService, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			http.Error(w, "Missing email or password", http.StatusBadRequest)
			return
		}

		user, err := directory.Authenticate(req.Email, req.Password)
		if err != nil {
			logger.Info("login rejected", "email", req.Email, "error", err)
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}

		token, expiresAt, err := tokens.Issue(user)
		if err != nil {
			logger.Error("token issue failed", "user_id", user.ID, "error", err)
			http.Error(w, "Failed to issue token", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     halomw.SessionCookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt.UnixMilli(),
			User:      *user,
		})
	}
}

// handleWhoAmI returns the caller and the catalog permissions it holds
func handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	session := halomw.SessionFromContext(r.Context())
	if !session.IsAuthenticated() {
		http.Error(w, "Not authenticated", http.StatusUnauthorized)
		return
	}
	user := session.User()
	granted := []string{}
	for _, p := range sdk.CatalogPermissions() {
		if session.HasPermission(p) {
			granted = append(granted, p)
		}
	}
	writeJSON(w, http.StatusOK, WhoamiResponse{
		User:        *user,
		Role:        user.Role.DisplayName(),
		Permissions: granted,
	})
}
