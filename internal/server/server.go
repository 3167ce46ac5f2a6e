// Package server is the annotation server the gateway talks to. It keeps
// local annotations in the store and answers every call with JSON on success
// or a plain-text body on failure.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ppiankov/depicta/internal/cache"
	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/store"
)

// Labeler resolves item labels for new statements.
type Labeler interface {
	Label(ctx context.Context, itemID string) (model.Label, error)
}

// Options configures a Server.
type Options struct {
	Store      *store.Store
	Labels     Labeler // optional; item ids are used as labels without it
	Properties []string
	Domains    []string
	Language   string
	SessionTTL time.Duration
	Origins    []string // CORS origins allowed to call the API with credentials
	Logger     *logger.Logger
}

// Server holds the handlers' dependencies.
type Server struct {
	store      *store.Store
	labels     Labeler
	properties map[string]bool
	domains    map[string]bool
	language   string
	sessions   *sessions
	origins    []string
	log        *logger.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if len(opts.Domains) == 0 {
		opts.Domains = []string{"www.wikidata.org", "commons.wikimedia.org"}
	}
	if len(opts.Properties) == 0 {
		opts.Properties = []string{"P180"}
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	s := &Server{
		store:      opts.Store,
		labels:     opts.Labels,
		properties: make(map[string]bool),
		domains:    make(map[string]bool),
		language:   opts.Language,
		sessions:   newSessions(cache.NewMemoryCache(opts.SessionTTL, 10*time.Minute), opts.SessionTTL),
		origins:    opts.Origins,
		log:        opts.Logger.With("component", "server"),
	}
	for _, p := range opts.Properties {
		s.properties[p] = true
	}
	for _, d := range opts.Domains {
		s.domains[d] = true
	}
	return s
}

// Router builds the gin engine with every endpoint.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.origins,
			AllowMethods:     []string{"POST", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := r.Group("/api/v1")
	v1.POST("/add_statement_local/:domain", s.requireSession(), s.addStatement)
	v1.POST("/delete_statement_local", s.deleteStatement)

	v2 := r.Group("/api/v2")
	v2.POST("/session", s.openSession)
	v2.POST("/depicteds", s.depicteds)
	v2.POST("/add_qualifier_local/:domain", s.requireSession(), s.addQualifier)
	v2.POST("/delete_qualifier_local", s.deleteQualifier)
	v2.POST("/add_comment", s.requireSession(), s.addComment)
	v2.POST("/get_comments", s.getComments)
	v2.POST("/get_comments_own_user", s.requireSession(), s.getOwnComments)
	v2.POST("/get_approved", s.getApproved)
	v2.POST("/approve", s.requireSession(), s.approve)
	v2.POST("/upload_annotations", s.requireSession(), s.upload)
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// fail answers with a plain-text error. The client shows the text as is.
func fail(c *gin.Context, status int, text string) {
	c.String(status, text)
	c.Abort()
}
