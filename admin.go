// admin.go - analytics dashboard behind a cookie token
package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/andrewotz/portfolio/internal/analytics"
	"github.com/andrewotz/portfolio/internal/config"
	"github.com/andrewotz/portfolio/internal/preference"
)

const adminCookie = "admin_token"

type adminAuth struct {
	token     string
	username  string
	password  string
	secure    bool
	retention time.Duration
	tracker   *analytics.Tracker
	log       zerolog.Logger
}

func newAdminAuth(cfg *config.Config, tracker *analytics.Tracker, log zerolog.Logger) (*adminAuth, error) {
	token, err := generateAdminToken()
	if err != nil {
		return nil, err
	}

	a := &adminAuth{
		token:     token,
		username:  cfg.AdminUsername,
		password:  cfg.AdminPassword,
		secure:    cfg.SecureCookies,
		retention: cfg.AnalyticsRetention,
		tracker:   tracker,
		log:       log,
	}

	// Default credentials for development only
	if a.username == "" {
		a.username = "admin"
		if gin.Mode() == gin.DebugMode {
			log.Warn().Msg("using default admin username; set ADMIN_USERNAME")
		}
	}
	if a.password == "" {
		if gin.Mode() != gin.DebugMode {
			return nil, fmt.Errorf("ADMIN_PASSWORD must be set outside debug mode")
		}
		a.password = "admin123"
		log.Warn().Msg("using default admin password; set ADMIN_PASSWORD")
	}

	log.Info().Msg("admin access available at /admin/login")
	return a, nil
}

func generateAdminToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate admin token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (a *adminAuth) clientHash(c *gin.Context) string {
	return a.tracker.HashIP(c.ClientIP())
}

// Middleware to check admin authentication
func (a *adminAuth) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *adminAuth) validCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// Setup all admin routes
func (a *adminAuth) setupRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		pref, root := preference.PageFromRequest(c, a.secure)
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":        "Privacy Policy",
			"rootClass":    root.Class(),
			"resolveTheme": pref.Deferred(),
			"text":         UIText,
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if a.validCredentials(c.PostForm("username"), c.PostForm("password")) {
			c.SetSameSite(http.SameSiteStrictMode)
			c.SetCookie(adminCookie, a.token, 3600*24, "/admin", "", a.secure, true)
			a.log.Info().Str("client", a.clientHash(c)).Msg("admin login successful")
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		a.log.Warn().Str("client", a.clientHash(c)).Msg("failed admin login attempt")
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", a.secure, true)
		a.log.Info().Str("client", a.clientHash(c)).Msg("admin logout")
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.middleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.tracker.Stats(c.Request.Context())
		if err != nil {
			a.log.Error().Err(err).Msg("error loading admin stats")
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"title": "Error",
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"title": "Analytics",
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.tracker.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Privacy compliance: purge views past the retention window now
	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		n, err := a.tracker.Cleanup(c.Request.Context(), a.retention)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": n})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := a.tracker.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=portfolio-stats.json")
		a.log.Info().Str("client", a.clientHash(c)).Msg("admin stats exported")
		c.JSON(http.StatusOK, stats)
	})
}
