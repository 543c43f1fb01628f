package main

import (
	"database/sql"
	"net/http"
	"time"

	"shadi-recommendations/internal/httpapi"
	"shadi-recommendations/internal/obs"
	"shadi-recommendations/internal/security"
	"shadi-recommendations/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, db *sql.DB, h httpapi.Handlers, guard *security.Guard) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	v1 := r.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Login)
			authGroup.POST("/logout", guard.RequireAuth("/login"), h.Logout)
		}

		// Browsing is open; mutations go through the guard.
		restaurants := v1.Group("/restaurants")
		{
			restaurants.GET("", h.ListRestaurants)
			restaurants.GET("/:id", h.GetRestaurant)
			restaurants.POST("",
				guard.RequirePermission(security.PermRestaurantsCreate, "/unauthorized"),
				h.CreateRestaurant)
			restaurants.PUT("/:id", guard.RequireAuth("/login"), h.UpdateRestaurant)
			restaurants.DELETE("/:id", guard.RequireAuth("/login"), h.DeleteRestaurant)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.POST("",
				guard.RequirePermission(security.PermReviewsCreate, "/unauthorized"),
				h.CreateReview)
			reviews.PUT("/:id", guard.RequireAuth("/login"), h.UpdateReview)
			reviews.DELETE("/:id", guard.RequireAuth("/login"), h.DeleteReview)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/roles",
				guard.RequirePermission(security.PermUsersManage, "/unauthorized"),
				h.AdminSetRole)
			admin.POST("/audit/purge",
				guard.RequirePermission(security.PermAuditRead, "/unauthorized"),
				h.AdminPurgeAudit)
		}
	}
}
