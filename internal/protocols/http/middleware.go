package http

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"lessonhub/internal/core"
	"lessonhub/pkg/logger"
	"lessonhub/pkg/models"
)

// AuthMiddleware validates the Bearer token and sets the user context
func AuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}
		authenticate(c, authSvc, token)
	}
}

// OptionalAuthMiddleware sets the user context when a valid token is
// present but lets anonymous requests through. Used on public reads where
// elevated roles see more.
func OptionalAuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		user, err := authSvc.ValidateToken(c.Request.Context(), token)
		if err == nil {
			c.Set("user_id", user.ID)
			c.Set("user", user)
		}
		c.Next()
	}
}

// QueryTokenAuthMiddleware authenticates from the Authorization header or,
// failing that, a ?token= query parameter. Browser-embedded viewers cannot
// attach headers, so the stream endpoint accepts both.
func QueryTokenAuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			token = c.Query("token")
		}
		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}
		authenticate(c, authSvc, token)
	}
}

func authenticate(c *gin.Context, authSvc core.AuthService, token string) {
	user, err := authSvc.ValidateToken(c.Request.Context(), token)
	if err != nil {
		abortUnauthorized(c, "unauthorized")
		return
	}
	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Next()
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.JSON(401, models.APIResponse{
		Success:   false,
		Error:     msg,
		Code:      models.ErrCodeUnauthorized,
		Timestamp: time.Now(),
	})
	c.Abort()
}

func abortForbidden(c *gin.Context, msg string) {
	c.JSON(403, models.APIResponse{
		Success:   false,
		Error:     msg,
		Code:      models.ErrCodeForbidden,
		Timestamp: time.Now(),
	})
	c.Abort()
}

// GetUserID extracts the user id from the gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetUser retrieves the full authenticated user from the context
func GetUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}
	u, ok := user.(*models.User)
	return u, ok
}

// AdminMiddleware ensures the user holds the admin role
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUser(c)
		if !exists {
			abortUnauthorized(c, "unauthorized")
			return
		}
		if !user.IsAdmin() {
			abortForbidden(c, "admin access required")
			return
		}
		c.Next()
	}
}

// ContentManagerMiddleware allows admins and content managers through
func ContentManagerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUser(c)
		if !exists {
			abortUnauthorized(c, "unauthorized")
			return
		}
		if !user.CanManageContent() {
			abortForbidden(c, "content manager access required")
			return
		}
		c.Next()
	}
}

// SupportMiddleware allows admins and support staff through
func SupportMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUser(c)
		if !exists {
			abortUnauthorized(c, "unauthorized")
			return
		}
		if !user.CanHandleTickets() {
			abortForbidden(c, "support access required")
			return
		}
		c.Next()
	}
}

// clientRateLimiter keeps one token bucket per client key so a single
// noisy client cannot exhaust the budget for everyone else.
type clientRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const maxTrackedClients = 4096

func newClientRateLimiter(limit rate.Limit, burst int) *clientRateLimiter {
	return &clientRateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   limit,
		burst:   burst,
	}
}

func (l *clientRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.prune()
		}
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = time.Now()
	return b.limiter.Allow()
}

// prune drops buckets idle long enough to have fully refilled anyway.
// Called with the lock held.
func (l *clientRateLimiter) prune() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for key, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// uploadRateLimiter throttles the upload endpoint per client. Uploads hit
// the object store directly, so a modest per-client budget is enough.
func uploadRateLimiter() gin.HandlerFunc {
	return perClientLimit(newClientRateLimiter(rate.Every(time.Second), 5))
}

// streamRateLimiter throttles the stream proxy per client; each request
// holds an upstream connection open for its duration.
func streamRateLimiter() gin.HandlerFunc {
	return perClientLimit(newClientRateLimiter(rate.Every(100*time.Millisecond), 30))
}

// perClientLimit keys the bucket by user id, falling back to client IP
// when the route is reached without an authenticated user.
func perClientLimit(l *clientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := GetUserID(c)
		if !ok {
			key = c.ClientIP()
		}
		if !l.allow(key) {
			c.JSON(429, models.APIResponse{
				Success:   false,
				Error:     "too many requests",
				Timestamp: time.Now(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request through pkg/logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.HTTP(c.Request.Method, path, c.Writer.Status(), int(time.Since(start).Milliseconds()))
	}
}
