package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
	Admin
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return "unauthenticated"
	}
}

// Identity is the resolved caller. The zero value is unauthenticated, so an
// identity that was never resolved is denied like one that failed.
type Identity struct {
	State  State  `json:"state"`
	UserID int64  `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

func (i Identity) IsAdmin() bool { return i.State == Admin }

func (i Identity) IsAuthenticated() bool { return i.State >= Authenticated }

type SessionStore interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type Gate struct {
	sessions SessionStore
}

func NewGate(sessions SessionStore) *Gate {
	return &Gate{sessions: sessions}
}

// Resolve never fails: lookup errors resolve to the least privileged state.
func (g *Gate) Resolve(ctx context.Context, token string) Identity {
	if token == "" {
		return Identity{}
	}

	session, err := g.sessions.GetSession(ctx, token)
	if err != nil {
		if !errors.Is(err, database.ErrSessionNotFound) {
			log.Printf("auth: resolve session: %v", err)
		}
		return Identity{}
	}

	id := Identity{State: Authenticated, UserID: session.UserID, Email: session.Email}

	admin, err := g.sessions.IsAdmin(ctx, session.UserID)
	if err != nil {
		log.Printf("auth: privilege check for user %d: %v", session.UserID, err)
		return id
	}
	if admin {
		id.State = Admin
	}
	return id
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(contextKey{}).(Identity)
	return id
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Identify attaches the caller's identity to the request context.
func Identify(g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := g.Resolve(r.Context(), bearerToken(r))
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin answers 401 without a session and 403 without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromContext(r.Context())
		switch {
		case !id.IsAuthenticated():
			writeError(w, http.StatusUnauthorized, "authentication required")
		case !id.IsAdmin():
			writeError(w, http.StatusForbidden, "admin access required")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.Printf("auth: encode error response: %v", err)
	}
}
