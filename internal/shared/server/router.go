package server

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	googleauth "docqa-backend/internal/auth"
	"docqa-backend/internal/chat"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/shared/server/respond"
	"docqa-backend/internal/users"
)

const (
	apiPrefix     = "/api/v1"
	chatRateGroup = "CHAT"
)

// RouterDeps are the handlers mounted by NewRouter. GoogleAuth may be nil.
type RouterDeps struct {
	Config          config.Config
	Tokens          middleware.TokenVerifier
	DocumentHandler *documents.Handler
	ChatHandler     *chat.Handler
	UserHandler     *users.Handler
	GoogleAuth      *googleauth.GoogleService
	RateLimiter     *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		gzip.Gzip(gzip.DefaultCompression),
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(
		middleware.Auth(deps.Tokens),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				chatRateGroup: middleware.PerMinute(deps.Config.ChatRatePerMinute),
			},
			GroupFor: rateGroup,
			Limiter:  deps.RateLimiter,
		}),
	)
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(protected)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(protected)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(protected)
	}

	return r
}

// rateGroup limits asking questions only; reads and uploads are not limited.
func rateGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == apiPrefix+"/chat" {
		return chatRateGroup
	}
	return "NONE"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
