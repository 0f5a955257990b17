package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"nairobify-be/middlewares"
	"nairobify-be/models"
)

// GetReference returns the enumerations the form and dashboard are built from
func GetReference(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":    models.Categories,
		"statuses":      models.Statuses,
		"wards":         models.Wards,
		"locationTypes": models.LocationTypes,
		"cityFacts":     models.CityFacts,
	})
}

// GetReporter returns the anonymous identity of the calling device
func GetReporter(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reporterId": middlewares.ReporterID(c)})
}
