package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nairobify-be/logger"
	"nairobify-be/reporter"
)

const reporterIDKey = "reporter_id"

// reporterCookieMaxAge keeps the identity for a year.
const reporterCookieMaxAge = 365 * 24 * 60 * 60

// CookieOptions are the cookie attributes of the reporter identity.
type CookieOptions struct {
	Domain     string
	Production bool
}

// CookieIdentityStore keeps reporter identity values in browser cookies: the
// cookie jar is the device of an HTTP client.
type CookieIdentityStore struct {
	c    *gin.Context
	opts CookieOptions
	set  map[string]string
}

func NewCookieIdentityStore(c *gin.Context, opts CookieOptions) *CookieIdentityStore {
	return &CookieIdentityStore{c: c, opts: opts, set: make(map[string]string)}
}

func (s *CookieIdentityStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.set[key]; ok {
		return v, nil
	}
	v, err := s.c.Cookie(key)
	if err == http.ErrNoCookie {
		return "", nil
	}
	return v, err
}

func (s *CookieIdentityStore) Set(_ context.Context, key, value string) error {
	domain := s.opts.Domain
	// For production, don't set domain to allow cross-origin cookies
	if s.opts.Production {
		domain = ""
	}

	http.SetCookie(s.c.Writer, &http.Cookie{
		Name:     key,
		Value:    value,
		MaxAge:   reporterCookieMaxAge,
		Path:     "/",
		Domain:   domain,
		Secure:   s.opts.Production,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
	s.set[key] = value
	return nil
}

// ReporterIdentity assigns every client a stable anonymous reporter id and
// stores it in the context under "reporter_id".
func ReporterIdentity(opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id, err := reporter.GetOrCreateReporterID(ctx, NewCookieIdentityStore(c, opts))
		if err != nil {
			logger.FromContext(ctx).Error("reporter identity failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
			c.Abort()
			return
		}

		c.Set(reporterIDKey, id)
		c.Next()
	}
}

// ReporterID returns the id set by ReporterIdentity, or "".
func ReporterID(c *gin.Context) string {
	return c.GetString(reporterIDKey)
}
