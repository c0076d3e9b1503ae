// Package analytics records privacy-conscious page views in SQLite and
// describes the third-party tag the page layout loads.
package analytics

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// View is one recorded page view.
type View struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// PathCount is a path and how often it was viewed.
type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Stats summarises recorded views for the admin dashboard.
type Stats struct {
	TotalViews     int64       `json:"total_views"`
	UniqueVisitors int64       `json:"unique_visitors"`
	ViewsToday     int64       `json:"views_today"`
	ViewsThisWeek  int64       `json:"views_this_week"`
	TopPaths       []PathCount `json:"top_paths"`
	RecentViews    []View      `json:"recent_views"`
}

// Tracker stores page views. Raw IPs are never written; they are hashed with
// a per-process salt first.
type Tracker struct {
	db   *sql.DB
	salt string
	log  zerolog.Logger
	now  func() time.Time
	wg   sync.WaitGroup
}

// Options configures a Tracker.
type Options struct {
	Path   string
	Salt   string
	Logger zerolog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS page_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	path TEXT NOT NULL,
	viewed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_page_views_viewed_at ON page_views(viewed_at);
`

// Open opens (creating if needed) the database at opts.Path.
func Open(ctx context.Context, opts Options) (*Tracker, error) {
	if dir := filepath.Dir(opts.Path); dir != "." && !strings.HasPrefix(opts.Path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create page_views table: %w", err)
	}

	salt := opts.Salt
	if salt == "" {
		salt, err = randomHex(32)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Tracker{db: db, salt: salt, log: opts.Logger, now: time.Now}, nil
}

// Close waits for in-flight writes and closes the database.
func (t *Tracker) Close() error {
	t.wg.Wait()
	return t.db.Close()
}

// HashIP returns a truncated salted hash, stable for the life of the process.
func (t *Tracker) HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + t.salt))
	return hex.EncodeToString(sum[:])[:16]
}

// Record stores a view for ip.
func (t *Tracker) Record(ctx context.Context, ip, userAgent, path string) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO page_views (hashed_ip, user_agent, path, viewed_at) VALUES (?, ?, ?, ?)`,
		t.HashIP(ip), userAgent, path, t.now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

// Cleanup deletes views older than maxAge and returns how many were removed.
func (t *Tracker) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := t.now().Add(-maxAge).UTC().Unix()
	res, err := t.db.ExecContext(ctx, `DELETE FROM page_views WHERE viewed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup views: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		t.log.Info().Int64("removed", n).Dur("max_age", maxAge).Msg("privacy cleanup removed old page views")
	}
	return n, nil
}

// CleanupInBackground runs Cleanup on its own goroutine. Close waits for it,
// so the database is never closed underneath the delete.
func (t *Tracker) CleanupInBackground(ctx context.Context, maxAge time.Duration) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if _, err := t.Cleanup(ctx, maxAge); err != nil {
			t.log.Warn().Err(err).Msg("background cleanup failed")
		}
	}()
}

// Stats computes dashboard figures.
func (t *Tracker) Stats(ctx context.Context) (*Stats, error) {
	now := t.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{TopPaths: []PathCount{}, RecentViews: []View{}}

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalViews, `SELECT COUNT(*) FROM page_views`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM page_views`, nil},
		{&stats.ViewsToday, `SELECT COUNT(*) FROM page_views WHERE viewed_at >= ?`, []any{startOfDay.Unix()}},
		{&stats.ViewsThisWeek, `SELECT COUNT(*) FROM page_views WHERE viewed_at >= ?`, []any{weekAgo.Unix()}},
	}
	for _, c := range counts {
		if err := t.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	rows, err := t.db.QueryContext(ctx, `
		SELECT path, COUNT(*) AS views
		FROM page_views
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("top paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			return nil, fmt.Errorf("scan top path: %w", err)
		}
		stats.TopPaths = append(stats.TopPaths, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	recent, err := t.Recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	stats.RecentViews = recent
	return stats, nil
}

// Recent returns the latest views, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]View, error) {
	rows, err := t.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), path, viewed_at
		FROM page_views
		ORDER BY viewed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent views: %w", err)
	}
	defer rows.Close()

	views := []View{}
	for rows.Next() {
		var v View
		var ts int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("scan view: %w", err)
		}
		v.Timestamp = time.Unix(ts, 0).UTC()
		views = append(views, v)
	}
	return views, rows.Err()
}

var untrackedPrefixes = []string{"/static/", "/admin", "/favicon", "/privacy", "/healthz", "/resume"}

// Middleware records full-page GETs in the background. Static assets, admin
// pages, HTMX partials and Do-Not-Track requests are skipped.
func (t *Tracker) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !t.shouldTrack(c) {
			c.Next()
			return
		}

		ip, ua, path := c.ClientIP(), c.GetHeader("User-Agent"), c.Request.URL.Path
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := t.Record(ctx, ip, ua, path); err != nil {
				t.log.Warn().Err(err).Str("path", path).Msg("error recording page view")
			}
		}()
		c.Next()
	}
}

// Wait blocks until background recordings and cleanups finish.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) shouldTrack(c *gin.Context) bool {
	if c.Request.Method != "GET" {
		return false
	}
	if c.GetHeader("DNT") == "1" || c.GetHeader("HX-Request") == "true" {
		return false
	}
	path := c.Request.URL.Path
	for _, p := range untrackedPrefixes {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
