package api

import (
	"net/http"

	"voyago/travel-planner/internal/service"
	"voyago/travel-planner/internal/sync"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	sessionService service.SessionService,
	rateService service.RateService,
	registry *sync.Registry,
	catalog *sync.Catalog,
) {
	sessionHandler := NewSessionHandler(sessionService, registry)
	tripHandler := NewTripHandler(registry, catalog)
	ratesHandler := NewRatesHandler(rateService)
	streamHandler := NewStreamHandler(registry, catalog, jwtSecret)

	sessionMiddleware := SessionMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// Session establishment is the only unauthenticated operation.
		apiV1.POST("/session", sessionHandler.Establish)

		// Websocket handshakes authenticate via query token because the
		// browser cannot set headers on them.
		apiV1.GET("/trips/stream", streamHandler.StreamCatalog)
		apiV1.GET("/trips/:id/stream", streamHandler.StreamTrip)
	}

	protected := apiV1.Group("")
	protected.Use(sessionMiddleware)
	{
		protected.DELETE("/session", sessionHandler.End)

		tripGroup := protected.Group("/trips")
		{
			tripGroup.GET("", tripHandler.ListTrips)
			tripGroup.POST("", tripHandler.CreateTrip)
			tripGroup.POST("/:id/select", tripHandler.SelectTrip)
			tripGroup.GET("/:id", tripHandler.GetSnapshot)

			// Spot list mutations; all return 202, the result arrives
			// through the push stream.
			tripGroup.POST("/:id/days/:day/spots", tripHandler.AddSpot)
			tripGroup.POST("/:id/days/:day/spots/:spotId/move", tripHandler.MoveSpot)
			tripGroup.PUT("/:id/days/:day/spots/:spotId", tripHandler.EditSpot)
			tripGroup.DELETE("/:id/days/:day/spots/:spotId", tripHandler.RemoveSpot)
		}

		ratesGroup := protected.Group("/rates")
		{
			ratesGroup.GET("/convert", ratesHandler.Convert)
			ratesGroup.GET("/overrides", ratesHandler.GetOverrides)
			ratesGroup.PUT("/overrides/:code/rate", ratesHandler.SetManualRate)
			ratesGroup.DELETE("/overrides/:code/rate", ratesHandler.ClearManualRate)
			ratesGroup.PUT("/overrides/:code/enabled", ratesHandler.SetEnabled)
			ratesGroup.GET("/:base", ratesHandler.GetRates)
		}
	}
}
