package preference

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T, cookie, hint string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: Key, Value: cookie})
	}
	if hint != "" {
		req.Header.Set(HintHeader, hint)
	}
	c.Request = req
	return c, w
}

func TestCookieStoreLoad(t *testing.T) {
	cases := []struct {
		cookie string
		value  bool
		ok     bool
	}{
		{"true", true, true},
		{"false", false, true},
		{"", false, false},
		{"1", false, false},
		{"garbage", false, false},
	}
	for _, tc := range cases {
		c, _ := newContext(t, tc.cookie, "")
		v, ok := NewCookieStore(c, false).Load()
		require.Equal(t, tc.value, v, tc.cookie)
		require.Equal(t, tc.ok, ok, tc.cookie)
	}
}

func TestClientHint(t *testing.T) {
	cases := map[string]struct{ dark, ok bool }{
		"dark":    {true, true},
		`"dark"`:  {true, true},
		"light":   {false, true},
		"no-pref": {false, false},
		"":        {false, false},
	}
	for hint, want := range cases {
		c, _ := newContext(t, "", hint)
		dark, ok := NewClientHint(c.Request).PrefersDark()
		require.Equal(t, want.dark, dark, hint)
		require.Equal(t, want.ok, ok, hint)
	}
}

func TestFromRequestPersistsInitialValue(t *testing.T) {
	c, w := newContext(t, "", "dark")

	ctrl, root := FromRequest(c, false, false)

	require.True(t, ctrl.State().DarkMode)
	require.Equal(t, "dark", root.Class())
	cookies := w.Header().Values("Set-Cookie")
	require.Len(t, cookies, 1)
	require.True(t, strings.HasPrefix(cookies[0], "darkMode=true"))
	require.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestToggleWritesSingleCookieAndTrigger(t *testing.T) {
	c, w := newContext(t, "true", "")

	ctrl, root := FromRequest(c, false, true)
	ctrl.Dispatch(ActionToggle)

	require.False(t, root.Dark)
	require.Equal(t, "", root.Class())
	cookies := w.Header().Values("Set-Cookie")
	require.Len(t, cookies, 1)
	require.True(t, strings.HasPrefix(cookies[0], "darkMode=false"))
	require.JSONEq(t, `{"darkModeChanged":{"dark":false}}`, w.Header().Get("HX-Trigger"))
}

func TestPageFromRequestLeavesUnknownSchemeUnsaved(t *testing.T) {
	c, w := newContext(t, "", "")

	ctrl, root := PageFromRequest(c, false)

	require.True(t, ctrl.Deferred())
	require.False(t, root.Dark)
	require.Empty(t, w.Header().Values("Set-Cookie"))
	require.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestPageFromRequestSavesHintedScheme(t *testing.T) {
	c, w := newContext(t, "", "dark")

	ctrl, root := PageFromRequest(c, false)

	require.False(t, ctrl.Deferred())
	require.Equal(t, SourceSignal, ctrl.Source())
	require.Equal(t, "dark", root.Class())
	cookies := w.Header().Values("Set-Cookie")
	require.Len(t, cookies, 1)
	require.True(t, strings.HasPrefix(cookies[0], "darkMode=true"))
	require.NotContains(t, cookies[0], "HttpOnly", "the page script reads this cookie")
}
