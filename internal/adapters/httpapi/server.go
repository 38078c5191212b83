// Package httpapi exposes the portal service over a gin JSON API.
package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wasteportal/internal/core"
	"wasteportal/pkg/domain"
)

const (
	// DefaultCookieName carries the session token.
	DefaultCookieName = "session"

	ctxTokenKey = "wasteportal.token"
	ctxUserKey  = "wasteportal.user"
)

// Server routes HTTP requests to a core.Service.
type Server struct {
	svc         *core.Service
	cookieName  string
	logger      core.Logger
	gatherer    prometheus.Gatherer
	accessLog   io.Writer
	hub         *Hub
	upgrader    websocket.Upgrader
	origins     map[string]bool
	unsubscribe func()
}

// Option configures a Server.
type Option func(*Server)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l core.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer sets the registry served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithAccessLog writes one gin access log line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

// WithAllowedOrigins lets browsers served from other origins open the
// event stream. Origins are compared case-insensitively as scheme://host.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				s.origins[strings.ToLower(o)] = true
			}
		}
	}
}

// NewServer builds a server over svc and starts its event hub.
func NewServer(svc *core.Service, opts ...Option) *Server {
	s := &Server{
		svc:        svc,
		cookieName: DefaultCookieName,
		logger:     core.NewStdLogger(nil, false),
		gatherer:   prometheus.DefaultGatherer,
		origins:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.hub = NewHub(s.logger)
	go s.hub.Run()
	s.unsubscribe = svc.Reports().Subscribe(s.hub.Publish)
	return s
}

// Close detaches the event hub from the report store and disconnects its
// clients.
func (s *Server) Close() {
	s.unsubscribe()
	s.hub.Stop()
}

// Hub returns the report event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Router returns the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	if s.accessLog != nil {
		r.Use(gin.LoggerWithWriter(s.accessLog))
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	v1.Use(s.session())
	{
		auth := v1.Group("/auth")
		auth.POST("/login", s.handleLogin)
		auth.POST("/logout", s.handleLogout)
		auth.GET("/me", s.requireRole(""), s.handleMe)

		v1.GET("/reports/:id/photo", s.requireRole(""), s.handlePhoto)
		v1.HEAD("/reports/:id/photo", s.requireRole(""), s.handlePhoto)

		warga := v1.Group("/dashboard/warga")
		warga.Use(s.requireRole(domain.RoleResident))
		warga.GET("", s.handleResidentDashboard)
		warga.GET("/waste", s.handleResidentWaste)
		warga.GET("/reports", s.handleResidentReports)
		warga.POST("/reports", s.handleSubmitReport)
		warga.GET("/schedule", s.handleResidentSchedule)
		warga.GET("/wallet", s.handleWallet)

		dlh := v1.Group("/dashboard/dlh")
		dlh.Use(s.requireRole(domain.RoleAgency))
		dlh.GET("", s.handleAgencyDashboard)
		dlh.GET("/reports", s.handleAgencyReports)
		dlh.PATCH("/reports/:id", s.handleUpdateReport)
		dlh.POST("/reports/:id/verify", s.handleVerifyReport)
		dlh.POST("/reports/:id/assign", s.handleAssignReport)
		dlh.GET("/schedule", s.handleAgencySchedule)
		dlh.GET("/users", s.handleResidents)
		dlh.GET("/events", s.handleEvents)
	}
	return r
}

// session resolves the request's session token and signed-in user. It
// never rejects a request; requireRole does.
func (s *Server) session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := s.token(c)
		if token == "" {
			c.Next()
			return
		}
		c.Set(ctxTokenKey, token)
		user, err := s.svc.Session(token).CurrentUser(c.Request.Context())
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}
		if user != nil {
			c.Set(ctxUserKey, user)
		}
		c.Next()
	}
}

// requireRole admits the request when the route guard authorizes it. An
// empty role admits any signed-in user.
func (s *Server) requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := s.svc.Guard().Evaluate(role, currentUser(c))
		if d.Outcome == core.Authorized {
			c.Next()
			return
		}
		if wantsHTML(c.Request) {
			c.Redirect(http.StatusSeeOther, d.Location)
			c.Abort()
			return
		}
		status, msg := http.StatusUnauthorized, msgUnauthenticated
		if d.Outcome == core.Redirect {
			status, msg = http.StatusForbidden, msgForbidden
		}
		c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": msg, "redirect": d.Location})
	}
}

// token reads the session token from the cookie, a bearer header or the
// token query parameter, in that order.
func (s *Server) token(c *gin.Context) string {
	if v, err := c.Cookie(s.cookieName); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); h != "" {
		if parts := strings.SplitN(h, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
