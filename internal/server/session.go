package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/depicta/internal/cache"
)

const (
	sessionCookie = "depicta_session"
	sessionKey    = "session"
)

type session struct {
	Username  string `json:"username"`
	CSRFToken string `json:"csrf_token"`
}

type sessions struct {
	cache cache.Cache
	ttl   time.Duration
}

func newSessions(c cache.Cache, ttl time.Duration) *sessions {
	return &sessions{cache: c, ttl: ttl}
}

func (s *sessions) create(username string) (string, session, error) {
	id := uuid.NewString()
	sess := session{Username: username, CSRFToken: uuid.NewString()}
	if err := cache.SetJSON(s.cache, cache.Key("session", id), sess, s.ttl); err != nil {
		return "", session{}, err
	}
	return id, sess, nil
}

func (s *sessions) get(id string) (session, bool) {
	var sess session
	if id == "" || !cache.GetJSON(s.cache, cache.Key("session", id), &sess) {
		return session{}, false
	}
	return sess, true
}

// currentSession returns the caller's session, if the cookie names one.
func (s *Server) currentSession(c *gin.Context) (session, bool) {
	if v, ok := c.Get(sessionKey); ok {
		return v.(session), true
	}
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return session{}, false
	}
	return s.sessions.get(id)
}

func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := s.currentSession(c)
		if !ok {
			fail(c, http.StatusForbidden, "Not logged in")
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// checkMutation applies the anti-forgery, referer and domain checks of the
// mutating endpoints. It reports whether the request may go on.
func (s *Server) checkMutation(c *gin.Context, sess session) bool {
	if c.PostForm("_csrf_token") != sess.CSRFToken {
		fail(c, http.StatusForbidden, "Wrong CSRF token (try reloading the page).")
		return false
	}
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Host != c.Request.Host {
		fail(c, http.StatusForbidden, "Wrong Referer header")
		return false
	}
	if !s.domains[c.Param("domain")] {
		fail(c, http.StatusForbidden, "Unsupported domain")
		return false
	}
	return true
}

func (s *Server) openSession(c *gin.Context) {
	username := c.PostForm("username")
	if username == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	id, sess, err := s.sessions.create(username)
	if err != nil {
		s.log.Error("create session failed", "error", err)
		fail(c, http.StatusInternalServerError, "Could not create session")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(s.sessions.ttl.Seconds()), "/", "", false, true)
	s.log.Info("session opened", "user", username)
	c.JSON(http.StatusOK, gin.H{"csrf_token": sess.CSRFToken})
}
