package preference

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HintHeader is the user-agent client hint carrying the color scheme.
	HintHeader = "Sec-CH-Prefers-Color-Scheme"

	cookieMaxAge = 365 * 24 * 60 * 60
)

// CookieStore keeps the preference in the darkMode cookie.
type CookieStore struct {
	c      *gin.Context
	secure bool
}

// NewCookieStore binds a store to the current request.
func NewCookieStore(c *gin.Context, secure bool) *CookieStore {
	return &CookieStore{c: c, secure: secure}
}

func (s *CookieStore) Load() (bool, bool) {
	raw, err := s.c.Cookie(Key)
	if err != nil {
		return false, false
	}
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Save replaces any darkMode cookie already written in this response so a
// toggle sends one Set-Cookie, not two.
func (s *CookieStore) Save(value bool) {
	header := s.c.Writer.Header()
	prefix := Key + "="
	kept := make([]string, 0, len(header.Values("Set-Cookie")))
	for _, v := range header.Values("Set-Cookie") {
		if !strings.HasPrefix(v, prefix) {
			kept = append(kept, v)
		}
	}
	header.Del("Set-Cookie")
	for _, v := range kept {
		header.Add("Set-Cookie", v)
	}

	// Not HttpOnly: the page script reads it to decide whether it still has
	// to resolve the color scheme itself.
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(Key, strconv.FormatBool(value), cookieMaxAge, "/", "", s.secure, false)
}

// ClientHint reads Sec-CH-Prefers-Color-Scheme from the request.
type ClientHint struct {
	r *http.Request
}

func NewClientHint(r *http.Request) ClientHint {
	return ClientHint{r: r}
}

func (h ClientHint) PrefersDark() (bool, bool) {
	v := strings.Trim(strings.TrimSpace(h.r.Header.Get(HintHeader)), `"`)
	switch strings.ToLower(v) {
	case "dark":
		return true, true
	case "light":
		return false, true
	}
	return false, false
}

// RequestHints asks the browser to send the color-scheme hint on later
// requests (and to retry the first one with it).
func RequestHints(c *gin.Context) {
	c.Header("Accept-CH", HintHeader)
	c.Header("Vary", HintHeader)
	c.Header("Critical-CH", HintHeader)
}

// RootFlag records the flag for the page template. When Trigger is set it
// also emits an HX-Trigger event so an HTMX response can flip the class
// on the live document.
type RootFlag struct {
	Dark    bool
	Trigger bool
	c       *gin.Context
}

func NewRootFlag(c *gin.Context, trigger bool) *RootFlag {
	return &RootFlag{c: c, Trigger: trigger}
}

func (f *RootFlag) SetDark(dark bool) {
	f.Dark = dark
	if !f.Trigger || f.c == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"darkModeChanged": map[string]bool{"dark": dark},
	})
	f.c.Header("HX-Trigger", string(payload))
}

// Class is the body class for the current flag.
func (f *RootFlag) Class() string {
	if f.Dark {
		return "dark"
	}
	return ""
}

// FromRequest builds a controller bound to the request's cookie and hint.
func FromRequest(c *gin.Context, secure, trigger bool) (*Controller, *RootFlag) {
	root := NewRootFlag(c, trigger)
	return New(NewCookieStore(c, secure), NewClientHint(c.Request), root), root
}

// PageFromRequest is FromRequest for full-page renders. Browsers only send
// the color-scheme hint after seeing Accept-CH, so a first visit has neither
// cookie nor hint. Persisting the fallback then would shadow the hint on
// every later visit; instead the controller is left deferred and the page
// script settles it from matchMedia.
func PageFromRequest(c *gin.Context, secure bool) (*Controller, *RootFlag) {
	root := NewRootFlag(c, false)
	return NewDeferred(NewCookieStore(c, secure), NewClientHint(c.Request), root), root
}
