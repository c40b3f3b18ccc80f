package web

import (
	"errors"
	"net/http"
	"time"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const SessionCookie = "sessionid"

const sessionKey = "session"

// sessionWriter persists the session right before the response status is
// written, so the cookie still makes it into the headers.
type sessionWriter struct {
	gin.ResponseWriter
	persist func()
	done    bool
}

func (w *sessionWriter) flush() {
	if w.done {
		return
	}
	w.done = true
	w.persist()
}

func (w *sessionWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.flush()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.flush()
	return w.ResponseWriter.WriteString(s)
}

// SessionMiddleware loads the visitor session named by the session cookie,
// or starts a new one, and saves it back when a handler changed it.
func SessionMiddleware(store session.Store, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromCtx(ctx).With(zap.String("layer", "web"))

		var sess *session.Session
		if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
			loaded, err := store.Load(ctx, cookie)
			switch {
			case err == nil:
				sess = loaded
			case errors.Is(err, session.ErrSessionNotFound):
			default:
				log.Error("failed to load session", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
				return
			}
		}
		if sess == nil {
			sess = session.New()
		}

		c.Set(sessionKey, sess)
		c.Request = c.Request.WithContext(session.WithSession(ctx, sess))

		sw := &sessionWriter{ResponseWriter: c.Writer}
		sw.persist = func() {
			if !sess.Modified() {
				return
			}
			if err := store.Save(c.Request.Context(), sess); err != nil {
				log.Error("failed to save session", zap.String("session_id", sess.ID), zap.Error(err))
				return
			}
			http.SetCookie(sw.ResponseWriter, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(ttl.Seconds()),
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Writer = sw

		c.Next()

		sw.flush()
	}
}

func sessionFrom(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	// handlers always run behind SessionMiddleware
	s := session.New()
	c.Set(sessionKey, s)
	return s
}
