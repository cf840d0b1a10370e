package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hirelink/hirelink/internal/middleware"
)

// Register mounts every route on the echo instance. Marketplace and wallet
// routes require a valid token, admin routes additionally require the admin
// role claim.
func Register(e *echo.Echo, h *Handler, jwtSecret []byte) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	auth := middleware.JWT(jwtSecret)

	marketplace := e.Group("/marketplace", auth)
	marketplace.POST("/collaborations", h.Checkout)
	marketplace.GET("/collaborations", h.ListCollaborations)
	marketplace.POST("/collaborations/:id/requirements", h.SubmitRequirements)
	marketplace.POST("/collaborations/:id/cancel", h.Cancel)
	marketplace.POST("/collaborations/:id/approve", h.Approve)
	marketplace.POST("/collaborations/:id/dispute", h.Dispute)

	wallet := e.Group("/wallet", auth)
	wallet.GET("/transactions", h.ListTransactions)
	wallet.GET("/balance", h.Balance)

	admin := e.Group("/admin", auth, middleware.AdminGuard)
	admin.POST("/collaborations/:id/resolve", h.Resolve)
}
