package routes

import (
	"github.com/gin-gonic/gin"

	"nairobify-be/controllers"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, identity gin.HandlerFunc) {
	issue := r.Group("/api/issues")
	{
		issue.POST("", identity, ic.CreateIssue)
		issue.GET("", ic.ListIssues)
		issue.GET("/analytics", ic.GetIssueAnalytics)
		issue.GET("/map", ic.RecentIssues)
		issue.GET("/stream", ic.StreamIssues)
		issue.GET("/:id", ic.GetIssue)
		issue.PATCH("/:id/status", ic.UpdateIssueStatus)
	}
}

// ReferenceRoutes sets up the reference data and reporter identity routes
func ReferenceRoutes(r *gin.Engine, identity gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.GET("/reference", controllers.GetReference)
		api.GET("/reporter/me", identity, controllers.GetReporter)
	}
}
