package routes

import (
	"example.com/coldchain/api/handlers"
	"example.com/coldchain/api/middleware"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc service.Service, log *logrus.Logger) {
	// Health check
	r.GET("/health", handlers.HealthCheck)

	// Sensor-facing ingestion, authenticated by the sensor token
	ingestHandler := handlers.NewIngestHandler(svc, log)
	r.POST("/api/v1/ingest", ingestHandler.IngestForSensor)

	// Operator-facing API, authenticated by user API tokens
	api := r.Group("/api/v1")
	api.Use(middleware.UserAuth(svc, log))

	api.POST("/measurements", middleware.RequireManager(), ingestHandler.IngestMeasurement)

	sensorHandler := handlers.NewSensorHandler(svc, log)
	sensors := api.Group("/sensors")
	{
		sensors.POST("", middleware.RequireManager(), sensorHandler.CreateSensor)
		sensors.GET("", sensorHandler.ListSensors)
		sensors.GET("/:id", sensorHandler.GetSensor)
		sensors.PUT("/:id", middleware.RequireManager(), sensorHandler.UpdateSensor)
		sensors.DELETE("/:id", middleware.RequireManager(), sensorHandler.DeleteSensor)
	}

	measurementHandler := handlers.NewMeasurementHandler(svc, log)
	measurements := api.Group("/measurements")
	{
		measurements.GET("", measurementHandler.ListMeasurements)
		measurements.GET("/:id", measurementHandler.GetMeasurement)
		measurements.PATCH("/:id", middleware.RequireManager(), measurementHandler.UpdateMeasurement)
		measurements.DELETE("/:id", middleware.RequireManager(), measurementHandler.DeleteMeasurement)
	}

	alertHandler := handlers.NewAlertHandler(svc, log)
	rules := api.Group("/alert-rules")
	{
		rules.POST("", middleware.RequireManager(), alertHandler.CreateAlertRule)
		rules.GET("", alertHandler.ListAlertRules)
		rules.GET("/:id", alertHandler.GetAlertRule)
		rules.PUT("/:id", middleware.RequireManager(), alertHandler.UpdateAlertRule)
		rules.DELETE("/:id", middleware.RequireManager(), alertHandler.DeleteAlertRule)
	}

	alerts := api.Group("/alerts")
	{
		alerts.GET("", alertHandler.ListAlerts)
		alerts.GET("/:id", alertHandler.GetAlert)
		alerts.POST("/:id/acknowledge", alertHandler.AcknowledgeAlert)
		alerts.POST("/:id/resolve", alertHandler.ResolveAlert)
	}

	ticketHandler := handlers.NewTicketHandler(svc, log)
	tickets := api.Group("/tickets")
	{
		tickets.POST("", ticketHandler.CreateTicket)
		tickets.GET("", ticketHandler.ListTickets)
		tickets.GET("/:id", ticketHandler.GetTicket)
		tickets.PATCH("/:id", ticketHandler.UpdateTicket)
	}

	auditHandler := handlers.NewAuditHandler(svc, log)
	api.GET("/audit-logs", auditHandler.ListAuditLogs)

	userHandler := handlers.NewUserHandler(svc, log)
	users := api.Group("/users")
	users.Use(middleware.RequireManager())
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
	}
}
