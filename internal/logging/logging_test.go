package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Writer: &buf})
	require.NoError(t, err)

	l := Component(log, "contact")
	l.Info().Msg("hello")

	payload := map[string]any{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload))
	require.Equal(t, "contact", payload["component"])
	require.Equal(t, "hello", payload["message"])
}

func TestMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Middleware(log))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	line := strings.TrimSpace(buf.String())
	payload := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(line), &payload))
	require.Equal(t, "warn", payload["level"])
	require.Equal(t, "/missing", payload["path"])
	require.EqualValues(t, 404, payload["status"])
}
