package sesskit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minus-twelve/sesskit/types"
)

// fakeTokens is an in-memory TokenStore for resolver tests.
type fakeTokens map[string]string

func (f fakeTokens) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok && v != ""
}

func (f fakeTokens) Delete(name string) {
	delete(f, name)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(newMemoryStore(t), types.CookieConfig{Name: "sid"})
}

func TestManagerResolveTokenFirst(t *testing.T) {
	m := newTestManager(t)

	tokens := fakeTokens{"sid": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", m.Resolve(tokens, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))

	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", m.Resolve(fakeTokens{}, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	assert.Equal(t, NoSessionID, m.Resolve(fakeTokens{}, NoSessionID))
	assert.Equal(t, NoSessionID, m.Resolve(nil, NoSessionID))
}

func TestManagerSentinelBehavesAsNotFound(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	got, err := m.Get(ctx, fakeTokens{}, NoSessionID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, m.Update(ctx, fakeTokens{}, NoSessionID, types.Attributes{"a": 1}), ErrSessionNotFound)
	assert.NoError(t, m.Delete(ctx, fakeTokens{}, NoSessionID))
}

func TestManagerLifecycleViaToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, types.Attributes{"user": "alice"})
	require.NoError(t, err)

	tokens := fakeTokens{"sid": id}

	got, err := m.Get(ctx, tokens, NoSessionID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got["user"])

	require.NoError(t, m.Update(ctx, tokens, NoSessionID, types.Attributes{"theme": "dark"}))

	got, err = m.Get(ctx, tokens, NoSessionID)
	require.NoError(t, err)
	assert.Equal(t, types.Attributes{"user": "alice", "theme": "dark"}, got)
}

func TestManagerDeleteInvalidatesToken(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, types.Attributes{"user": "bob"})
	require.NoError(t, err)

	tokens := fakeTokens{"sid": id}
	require.NoError(t, m.Delete(ctx, tokens, NoSessionID))

	_, bound := tokens.Get("sid")
	assert.False(t, bound, "correlation token must be removed on delete")

	got, err := m.Get(ctx, fakeTokens{"sid": id}, NoSessionID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func ginRequest(t *testing.T, cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		c.Request.AddCookie(ck)
	}
	return c, w
}

func TestGinTokenStore(t *testing.T) {
	cfg := types.CookieConfig{Name: "sid", HTTPOnly: true}

	c, w := ginRequest(t, &http.Cookie{Name: "sid", Value: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	tokens := NewGinTokenStore(c, cfg)

	v, ok := tokens.Get("sid")
	assert.True(t, ok)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", v)

	tokens.Delete("sid")
	res := w.Result()
	require.Len(t, res.Cookies(), 1)
	assert.Equal(t, "sid", res.Cookies()[0].Name)
	assert.Negative(t, res.Cookies()[0].MaxAge)
}

func TestGinTokenStoreIssue(t *testing.T) {
	cfg := types.CookieConfig{Name: "sid"}

	c, w := ginRequest(t)
	tokens := NewGinTokenStore(c, cfg)

	_, ok := tokens.Get("sid")
	assert.False(t, ok)

	tokens.Issue("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	res := w.Result()
	require.Len(t, res.Cookies(), 1)
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", res.Cookies()[0].Value)
	assert.Equal(t, "/", res.Cookies()[0].Path)
}

func TestHTTPTokenStore(t *testing.T) {
	cfg := types.CookieConfig{Name: "sid", Secure: true, HTTPOnly: true}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "cccccccccccccccccccccccccccccccc"})
	w := httptest.NewRecorder()

	tokens := NewHTTPTokenStore(w, r, cfg)

	v, ok := tokens.Get("sid")
	assert.True(t, ok)
	assert.Equal(t, "cccccccccccccccccccccccccccccccc", v)

	tokens.Delete("sid")
	res := w.Result()
	require.Len(t, res.Cookies(), 1)
	assert.Negative(t, res.Cookies()[0].MaxAge)
	assert.True(t, res.Cookies()[0].HttpOnly)
}

func TestManagerMiddleware(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	id, err := m.Create(ctx, types.Attributes{"user": "carol"})
	require.NoError(t, err)

	c, _ := ginRequest(t, &http.Cookie{Name: "sid", Value: id})
	m.Middleware()(c)

	attrs, ok := SessionFromContext(c)
	require.True(t, ok)
	assert.Equal(t, "carol", attrs["user"])
}

func TestManagerMiddlewareNoSession(t *testing.T) {
	m := newTestManager(t)

	c, _ := ginRequest(t)
	m.Middleware()(c)

	_, ok := SessionFromContext(c)
	assert.False(t, ok)
}
