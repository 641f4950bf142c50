// Package sesskit is a server-side session store with cookie-correlated
// identity: opaque 32-hex-character ids keyed to an attribute mapping,
// persisted on a pluggable backend with per-id locking.
package sesskit

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/minus-twelve/sesskit/types"
)

// DefaultCookieName is used when the cookie config leaves Name empty.
const DefaultCookieName = "session_id"

// TokenStore is the cookie-equivalent correlation token transport
// consumed by the Manager. Implementations are per-request.
type TokenStore interface {
	Get(name string) (string, bool)
	Delete(name string)
}

// Manager is the request-facing surface over a Store. It resolves the
// effective session id from the correlation token or an explicit id
// and keeps the token in sync on delete.
type Manager struct {
	store  *Store
	cookie types.CookieConfig
}

func NewManager(store *Store, cookie types.CookieConfig) *Manager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Manager{
		store:  store,
		cookie: cookie,
	}
}

func (m *Manager) CookieName() string {
	return m.cookie.Name
}

// Store returns the underlying session store.
func (m *Manager) Store() *Store {
	return m.store
}

// Resolve picks the effective session id for a request. A correlation
// token takes precedence over an explicit id; with neither present the
// result is NoSessionID.
func (m *Manager) Resolve(tokens TokenStore, explicitID string) string {
	if tokens != nil {
		if v, ok := tokens.Get(m.cookie.Name); ok && v != "" {
			return v
		}
	}
	return explicitID
}

// Create stores a new session and returns its id. The caller issues
// the correlation token, e.g. via GinTokenStore.Issue.
func (m *Manager) Create(ctx context.Context, attrs types.Attributes) (string, error) {
	return m.store.Create(ctx, attrs)
}

// Get loads the attributes of the session the request is bound to.
// (nil, nil) means no session.
func (m *Manager) Get(ctx context.Context, tokens TokenStore, explicitID string) (types.Attributes, error) {
	return m.store.Get(ctx, m.Resolve(tokens, explicitID))
}

// Update merges attrs into the session the request is bound to.
func (m *Manager) Update(ctx context.Context, tokens TokenStore, explicitID string, attrs types.Attributes) error {
	return m.store.Update(ctx, m.Resolve(tokens, explicitID), attrs)
}

// Delete destroys the session the request is bound to and removes the
// correlation token. Deleting an unbound request is a no-op.
func (m *Manager) Delete(ctx context.Context, tokens TokenStore, explicitID string) error {
	if err := m.store.Delete(ctx, m.Resolve(tokens, explicitID)); err != nil {
		return err
	}
	if tokens != nil {
		tokens.Delete(m.cookie.Name)
	}
	return nil
}

const sessionContextKey = "sesskit/session"

// Middleware resolves the request's session from its cookie and, when
// one exists, stores the attributes in the gin context for
// SessionFromContext. Requests without a session pass through
// untouched.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens := NewGinTokenStore(c, m.cookie)
		attrs, err := m.Get(c.Request.Context(), tokens, NoSessionID)
		if err == nil && attrs != nil {
			c.Set(sessionContextKey, attrs)
		}
		c.Next()
	}
}

// SessionFromContext returns the attributes placed by Middleware.
func SessionFromContext(c *gin.Context) (types.Attributes, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	attrs, ok := v.(types.Attributes)
	return attrs, ok
}
