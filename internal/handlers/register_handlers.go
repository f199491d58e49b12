package handlers

import (
	"github.com/SscSPs/user_auth_backend/cmd/docs"
	portssvc "github.com/SscSPs/user_auth_backend/internal/core/ports/services"
	"github.com/SscSPs/user_auth_backend/internal/middleware"
	"github.com/SscSPs/user_auth_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// authLimiter may be nil, in which case credential endpoints are not throttled.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	authLimiter *limiter.Limiter,
	store HealthChecker,
) {
	registerHealthRoutes(r, store)

	setupAPIV1Routes(r, cfg, services, authLimiter)

	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	authLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")
	registerUserRoutes(v1, cfg, services, authLimiter)
}

// registerUserRoutes wires the public credential endpoints and the authenticated user endpoints.
func registerUserRoutes(
	rg *gin.RouterGroup,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	authLimiter *limiter.Limiter,
) {
	auth := NewAuthHandler(services.User, services.Token, cfg)
	uh := newUserHandler(services.User, cfg)

	throttle := func(c *gin.Context) { c.Next() }
	if authLimiter != nil {
		throttle = middleware.RateLimit(authLimiter)
	}

	users := rg.Group("/users")
	{
		users.POST("/register", auth.uploads.limitBody(), auth.Register)
		users.POST("/login", throttle, auth.Login)
		users.POST("/refresh-token", throttle, auth.RefreshToken)
	}

	secured := users.Group("", middleware.AuthMiddleware(cfg, services.Token, services.User))
	{
		secured.POST("/logout", auth.Logout)
		secured.POST("/change-password", uh.changePassword)
		secured.GET("/current-user", uh.currentUser)
		secured.PATCH("/update-account", uh.updateAccount)
		secured.PATCH("/avatar", uh.uploads.limitBody(), uh.updateAvatar)
		secured.PATCH("/cover-image", uh.uploads.limitBody(), uh.updateCoverImage)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
