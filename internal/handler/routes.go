package handler

import (
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Events     *EventHandler
	Categories *CategoryHandler
	Expenses   *ExpenseHandler
	Payments   *PaymentHandler
	Mutations  *MutationHandler
	Health     *HealthHandler
	WebSocket  *WebSocketHandler

	// OpenAPIServers are advertised by /swagger/openapi.json
	OpenAPIServers []Server
}

// RegisterRoutes sets up all API routes. Writes are rate limited per user.
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", h.Health.Health)
	// The websocket authenticates with a query token instead of the Authorization header
	e.GET("/ws", h.WebSocket.HandleWS)

	e.GET("/swagger/openapi.json", ServeOpenAPI3Spec(h.OpenAPIServers))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())
	limit := middleware.RateLimitMiddleware(rateLimiter)

	api.GET("/mutations", h.Mutations.GetStatus)

	// Event routes
	events := api.Group("/events")
	events.GET("", h.Events.GetEvents)
	events.POST("", h.Events.CreateEvent, limit)
	events.GET("/:eventId", h.Events.GetEvent)
	events.PUT("/:eventId", h.Events.UpdateEvent, limit)
	events.DELETE("/:eventId", h.Events.DeleteEvent, limit)
	events.POST("/:eventId/recalculate", h.Events.RecalculateTotals, limit)

	// Category routes
	categories := events.Group("/:eventId/categories")
	categories.GET("", h.Categories.GetCategories)
	categories.POST("", h.Categories.AddCategory, limit)
	categories.PUT("/:categoryId", h.Categories.UpdateCategory, limit)
	categories.DELETE("/:categoryId", h.Categories.DeleteCategory, limit)
	categories.GET("/:categoryId/payment-stats", h.Categories.GetPaymentStats)

	// Expense routes
	expenses := events.Group("/:eventId/expenses")
	expenses.GET("", h.Expenses.GetExpenses)
	expenses.POST("", h.Expenses.CreateExpense, limit)
	expenses.PUT("/:expenseId", h.Expenses.UpdateExpense, limit)
	expenses.DELETE("/:expenseId", h.Expenses.DeleteExpense, limit)
	expenses.GET("/:expenseId/payment-status", h.Expenses.GetPaymentStatus)

	// Payment routes
	payments := expenses.Group("/:expenseId")
	payments.POST("/payments", h.Payments.AddPayment, limit)
	payments.DELETE("/payments", h.Payments.ClearPayments, limit)
	payments.PUT("/payments/:paymentId", h.Payments.UpdatePayment, limit)
	payments.DELETE("/payments/:paymentId", h.Payments.DeletePayment, limit)
	payments.PATCH("/payments/:paymentId/paid", h.Payments.SetPaid, limit)
	payments.POST("/schedule", h.Payments.CreateSchedule, limit)
	payments.PUT("/schedule", h.Payments.UpdateSchedule, limit)
}
