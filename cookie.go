package sesskit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minus-twelve/sesskit/types"
)

// GinTokenStore adapts a gin request to the TokenStore contract.
type GinTokenStore struct {
	c      *gin.Context
	cookie types.CookieConfig
}

func NewGinTokenStore(c *gin.Context, cookie types.CookieConfig) *GinTokenStore {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &GinTokenStore{c: c, cookie: cookie}
}

func (t *GinTokenStore) Get(name string) (string, bool) {
	v, err := t.c.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (t *GinTokenStore) Delete(name string) {
	t.c.SetCookie(name, "", -1, t.cookie.Path, t.cookie.Domain, t.cookie.Secure, t.cookie.HTTPOnly)
}

// Issue binds the session id to the client under the configured
// cookie name.
func (t *GinTokenStore) Issue(id string) {
	t.c.SetCookie(t.cookie.Name, id, 0, t.cookie.Path, t.cookie.Domain, t.cookie.Secure, t.cookie.HTTPOnly)
}

// HTTPTokenStore adapts a plain net/http request/response pair for
// callers outside gin.
type HTTPTokenStore struct {
	r      *http.Request
	w      http.ResponseWriter
	cookie types.CookieConfig
}

func NewHTTPTokenStore(w http.ResponseWriter, r *http.Request, cookie types.CookieConfig) *HTTPTokenStore {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &HTTPTokenStore{r: r, w: w, cookie: cookie}
}

func (t *HTTPTokenStore) Get(name string) (string, bool) {
	c, err := t.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (t *HTTPTokenStore) Delete(name string) {
	http.SetCookie(t.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     t.cookie.Path,
		Domain:   t.cookie.Domain,
		MaxAge:   -1,
		Secure:   t.cookie.Secure,
		HttpOnly: t.cookie.HTTPOnly,
	})
}

func (t *HTTPTokenStore) Issue(id string) {
	http.SetCookie(t.w, &http.Cookie{
		Name:     t.cookie.Name,
		Value:    id,
		Path:     t.cookie.Path,
		Domain:   t.cookie.Domain,
		Secure:   t.cookie.Secure,
		HttpOnly: t.cookie.HTTPOnly,
	})
}
