package main

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/andrewotz/portfolio/internal/analytics"
	"github.com/andrewotz/portfolio/internal/config"
	"github.com/andrewotz/portfolio/internal/contact"
	"github.com/andrewotz/portfolio/internal/content"
	"github.com/andrewotz/portfolio/internal/logging"
	"github.com/andrewotz/portfolio/internal/preference"
	"github.com/andrewotz/portfolio/internal/session"
	"github.com/andrewotz/portfolio/web"
)

// The banner's refresh fires a little after the server-side reset so the
// partial it fetches no longer shows the banner.
const bannerRefreshSlack = 250 * time.Millisecond

// Server holds handler dependencies.
type Server struct {
	cfg      *config.Config
	log      zerolog.Logger
	content  *content.Portfolio
	sessions *session.Store
	tracker  *analytics.Tracker
	gtag     analytics.GoogleTag
	admin    *adminAuth
}

func newRouter(s *Server) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(logging.Middleware(s.log), gin.Recovery())
	if s.tracker != nil {
		r.Use(s.tracker.Middleware())
	}
	r.SetHTMLTemplate(tmpl)

	if s.cfg.StaticDir != "" {
		r.Static("/static", s.cfg.StaticDir)
	} else {
		r.StaticFS("/static", http.FS(web.Static()))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/resume", s.handleResume)

	// Pages and HTMX partials that need the visitor's session.
	site := r.Group("/")
	site.Use(s.sessions.Middleware())
	site.GET("/", s.handleHome)
	site.POST("/preferences/dark-mode", s.handleToggleDarkMode)
	site.GET("/contact", s.handleContactForm)
	site.GET("/contact/banner", s.handleContactBanner)
	site.POST("/contact", s.handleContactSubmit)
	site.POST("/contact/fields/:field", s.handleContactField)

	if s.admin != nil {
		s.admin.setupRoutes(r)
	}
	return r, nil
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

func (s *Server) currentSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := session.FromContext(c)
	if !ok {
		s.log.Error().Str("path", c.Request.URL.Path).Msg("request reached handler without a session")
		c.AbortWithStatus(http.StatusInternalServerError)
	}
	return sess, ok
}

func (s *Server) pageData(pref *preference.Controller, root *preference.RootFlag, form contact.State) gin.H {
	return gin.H{
		"title":        s.content.Name,
		"content":      s.content,
		"dark":         pref.State().DarkMode,
		"rootClass":    root.Class(),
		"resolveTheme": pref.Deferred(),
		"form":         form,
		"text":         UIText,
		"gtag":         s.gtag,
		"resetAfter":   contact.SuccessWindow + bannerRefreshSlack,
	}
}

func (s *Server) formData(form contact.State) gin.H {
	return gin.H{
		"form":       form,
		"text":       UIText,
		"resetAfter": contact.SuccessWindow + bannerRefreshSlack,
	}
}

// Home page route
func (s *Server) handleHome(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	pref, root := preference.PageFromRequest(c, s.cfg.SecureCookies)
	preference.RequestHints(c)
	c.HTML(http.StatusOK, "index.html", s.pageData(pref, root, sess.Contact.State()))
}

func (s *Server) handleToggleDarkMode(c *gin.Context) {
	pref, _ := preference.FromRequest(c, s.cfg.SecureCookies, isHTMX(c))
	state := pref.Dispatch(preference.ActionToggle)

	if !isHTMX(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "toggle.html", gin.H{
		"dark": state.DarkMode,
		"text": UIText,
	})
}

// HTMX contact form endpoint - returns just the form HTML
func (s *Server) handleContactForm(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "contact.html", s.formData(sess.Contact.State()))
}

// The success banner polls this once the window has passed; an empty body
// removes it.
func (s *Server) handleContactBanner(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "banner.html", s.formData(sess.Contact.State()))
}

func (s *Server) handleContactField(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}
	field, ok := contact.ParseField(c.Param("field"))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	state, err := sess.Contact.UpdateField(field, c.PostForm(string(field)))
	if err != nil {
		s.contactError(c, err)
		return
	}
	c.HTML(http.StatusOK, "field-error.html", web.Slot{
		Field:   string(field),
		Message: state.Error(string(field)),
	})
}

// Handle contact form submission with HTMX
func (s *Server) handleContactSubmit(c *gin.Context) {
	sess, ok := s.currentSession(c)
	if !ok {
		return
	}

	var fields contact.Fields
	if err := c.ShouldBind(&fields); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if _, err := sess.Contact.Replace(fields); err != nil {
		s.contactError(c, err)
		return
	}

	state, err := sess.Contact.Submit(c.Request.Context())
	data := s.formData(state)
	switch {
	case errors.Is(err, contact.ErrDelivery):
		data["deliveryError"] = UIText.DeliveryError
	case errors.Is(err, contact.ErrSubmitting):
		s.log.Debug().Msg("contact form already being delivered")
	case err != nil:
		s.contactError(c, err)
		return
	default:
		s.log.Debug().Str("phase", state.Phase().String()).Msg("contact form submitted")
	}

	if !isHTMX(c) {
		c.Redirect(http.StatusSeeOther, "/#contact")
		return
	}
	c.HTML(http.StatusOK, "contact.html", data)
}

func (s *Server) contactError(c *gin.Context, err error) {
	if errors.Is(err, contact.ErrClosed) {
		// The session expired between middleware and handler; a reload
		// starts a new one.
		c.Header("HX-Refresh", "true")
		c.Status(http.StatusConflict)
		return
	}
	s.log.Error().Err(err).Msg("contact form error")
	c.Status(http.StatusInternalServerError)
}

// RESUME_PATH overrides the copy embedded with the static assets.
func (s *Server) handleResume(c *gin.Context) {
	name := s.content.Resume.Filename
	if s.cfg.ResumePath != "" {
		if _, err := os.Stat(s.cfg.ResumePath); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.FileAttachment(s.cfg.ResumePath, name)
		return
	}

	b, err := fs.ReadFile(web.Static(), name)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", b)
}
