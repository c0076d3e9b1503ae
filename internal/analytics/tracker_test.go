package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := Open(context.Background(), Options{
		Path:   filepath.Join(t.TempDir(), "nested", "views.db"),
		Salt:   "test-salt",
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, tr.Close()) })
	return tr
}

func TestHashIPIsStableAndOpaque(t *testing.T) {
	tr := openTestTracker(t)
	a := tr.HashIP("203.0.113.7")
	require.Len(t, a, 16)
	require.Equal(t, a, tr.HashIP("203.0.113.7"))
	require.NotEqual(t, a, tr.HashIP("203.0.113.8"))
	require.NotContains(t, a, "203")
}

func TestRecordAndStats(t *testing.T) {
	tr := openTestTracker(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tr.now = func() time.Time { return now.Add(-10 * 24 * time.Hour) }
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "old", "/"))
	tr.now = func() time.Time { return now.Add(-3 * 24 * time.Hour) }
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "ua", "/"))
	tr.now = func() time.Time { return now.Add(-time.Hour) }
	require.NoError(t, tr.Record(ctx, "2.2.2.2", "ua", "/"))
	require.NoError(t, tr.Record(ctx, "2.2.2.2", "ua", "/other"))
	tr.now = func() time.Time { return now }

	stats, err := tr.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, stats.TotalViews)
	require.EqualValues(t, 2, stats.UniqueVisitors)
	require.EqualValues(t, 2, stats.ViewsToday)
	require.EqualValues(t, 3, stats.ViewsThisWeek)
	require.Equal(t, []PathCount{{Path: "/", Views: 3}, {Path: "/other", Views: 1}}, stats.TopPaths)
	require.Len(t, stats.RecentViews, 4)
	require.Equal(t, "/other", stats.RecentViews[0].Path)
	require.Equal(t, "old", stats.RecentViews[3].UserAgent)
}

func TestCleanupRemovesOldViews(t *testing.T) {
	tr := openTestTracker(t)
	ctx := context.Background()
	now := time.Now()

	tr.now = func() time.Time { return now.AddDate(-2, 0, 0) }
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "", "/"))
	tr.now = func() time.Time { return now }
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "", "/"))

	n, err := tr.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	stats, err := tr.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalViews)
}

func TestCleanupInBackgroundIsAwaited(t *testing.T) {
	tr := openTestTracker(t)
	ctx := context.Background()
	now := time.Now()

	tr.now = func() time.Time { return now.AddDate(-2, 0, 0) }
	require.NoError(t, tr.Record(ctx, "1.1.1.1", "", "/"))
	tr.now = func() time.Time { return now }

	tr.CleanupInBackground(ctx, 365*24*time.Hour)
	tr.Wait()

	stats, err := tr.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.TotalViews)
}

func TestCloseWaitsForBackgroundCleanup(t *testing.T) {
	tr, err := Open(context.Background(), Options{
		Path:   filepath.Join(t.TempDir(), "views.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	tr.CleanupInBackground(context.Background(), time.Hour)
	require.NoError(t, tr.Close())
}

func TestMiddlewareSkipsUntrackedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tr := openTestTracker(t)

	r := gin.New()
	r.Use(tr.Middleware())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/", ok)
	r.POST("/contact", ok)
	r.GET("/contact", ok)
	r.GET("/static/style.css", ok)
	r.GET("/admin/dashboard", ok)

	send := func(method, path string, headers map[string]string) {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	send(http.MethodGet, "/", nil)
	send(http.MethodGet, "/", map[string]string{"DNT": "1"})
	send(http.MethodGet, "/contact", map[string]string{"HX-Request": "true"})
	send(http.MethodPost, "/contact", nil)
	send(http.MethodGet, "/static/style.css", nil)
	send(http.MethodGet, "/admin/dashboard", nil)
	tr.Wait()

	stats, err := tr.Stats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, stats.TotalViews)
	require.Equal(t, "/", stats.TopPaths[0].Path)
}

func TestGoogleTag(t *testing.T) {
	require.False(t, GoogleTag{}.Enabled())
	g := GoogleTag{MeasurementID: "G-R0SSHMLP09"}
	require.True(t, g.Enabled())
	require.Equal(t, "https://www.googletagmanager.com/gtag/js?id=G-R0SSHMLP09", g.ScriptURL())
}
