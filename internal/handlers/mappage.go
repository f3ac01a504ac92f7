package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/middleware"
	"wastewatch/web/internal/models"
)

const (
	defaultMapLimit       = 100
	defaultSearchLimit    = 50
	defaultDistanceMeters = 1000
)

type mapPage struct {
	basePage
}

func (h HandlerSet) MapPage(c *gin.Context) {
	c.HTML(http.StatusOK, "map.html", mapPage{basePage: h.base(c, "Map")})
}

// MapData proxies report queries as JSON for the map script: a lat/lng pair
// selects the nearby query, a search term the text query, otherwise the
// plain listing. Same uniform error shape as every other page.
func (h HandlerSet) MapData(c *gin.Context) {
	current := middleware.CurrentSession(c)
	ctx := c.Request.Context()

	var (
		list []models.Report
		err  error
	)

	latParam, lngParam := c.Query("lat"), c.Query("lng")
	switch {
	case latParam != "" && lngParam != "":
		lat, latErr := strconv.ParseFloat(latParam, 64)
		lng, lngErr := strconv.ParseFloat(lngParam, 64)
		if latErr != nil || lngErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid latitude or longitude."})
			return
		}
		distance := defaultDistanceMeters
		if v, err := strconv.Atoi(c.Query("distance")); err == nil && v > 0 {
			distance = v
		}
		list, err = h.client.ReportsNear(ctx, current.Token(), lat, lng, distance)
	case c.Query("q") != "":
		list, err = h.client.SearchReports(ctx, current.Token(), c.Query("q"), defaultSearchLimit)
	default:
		list, err = h.client.ListReports(ctx, current.Token(), gateway.ListQuery{Limit: defaultMapLimit})
	}

	if err != nil {
		status := http.StatusBadGateway
		if gateway.IsAuthFailure(err) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": gateway.Describe(err)})
		return
	}

	if list == nil {
		list = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": list, "count": len(list)})
}
