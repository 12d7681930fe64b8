package routes

import (
	"net/http"

	"github.com/daromanx/qa-tracker/controllers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports readiness of the backing stores.
type HealthCheck func(c *gin.Context) error

func SetupRoutes(router *gin.Engine, authController *controllers.AuthController, userController *controllers.UserController) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.GET("/activate/:id/:token", authController.Activate)
		auth.POST("/activate/request", authController.RequestActivation)
		auth.POST("/login", authController.Login)
		auth.POST("/login/mfa", authController.VerifyMFA)
		auth.POST("/password/reset", authController.RequestPasswordReset)
		auth.GET("/password/reset/:id/:token", authController.CheckResetToken)
		auth.POST("/password/reset/:id/:token", authController.CompletePasswordReset)
		auth.POST("/logout", authController.AuthMiddleware(), authController.Logout)
	}

	user := router.Group("/auth/user")
	{
		user.GET("/me", authController.AuthMiddleware(), userController.GetCurrentUser)
		user.GET("/sessions", authController.AuthMiddleware(), userController.GetActiveSessions)
	}
}

// SetupOps mounts /health and /metrics. A nil gatherer serves the default
// registry.
func SetupOps(router *gin.Engine, gatherer prometheus.Gatherer, checks ...HealthCheck) {
	router.GET("/health", func(c *gin.Context) {
		for _, check := range checks {
			if err := check(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
