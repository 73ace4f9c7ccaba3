package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agrimarket/internal/service"
	"agrimarket/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders      *service.OrderService
	ratings     *service.RatingService
	alerts      *service.AlertService
	listings    *service.ListingService
	trustScores *service.TrustScoreEngine
	sweepSecret string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	ratings *service.RatingService,
	alerts *service.AlertService,
	listings *service.ListingService,
	trustScores *service.TrustScoreEngine,
	sweepSecret string,
) *Handler {
	return &Handler{
		orders:      orders,
		ratings:     ratings,
		alerts:      alerts,
		listings:    listings,
		trustScores: trustScores,
		sweepSecret: sweepSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/status", h.transitionOrder)
		v1.POST("/orders/:id/rating", h.submitRating)
		v1.POST("/payments/callback", h.paymentCallback)
		v1.POST("/listings", h.createListing)
		v1.POST("/alerts", h.createAlert)
		v1.GET("/alerts", h.listAlerts)
		v1.POST("/alerts/:id/deactivate", h.deactivateAlert)
		v1.GET("/sellers/:id/trust-score", h.getTrustScore)
		v1.GET("/prices", h.recentPrices)
	}

	router.POST("/internal/sweep", h.runSweep)
}

// callerContext builds the explicit caller identity from the authenticated
// request headers set by the gateway. No ambient session exists downstream.
func callerContext(c *gin.Context) (service.AuthContext, bool) {
	userID, err := strconv.ParseInt(c.GetHeader("X-User-ID"), 10, 64)
	if err != nil || userID <= 0 {
		return service.AuthContext{}, false
	}
	role := c.GetHeader("X-User-Role")
	if role == "" {
		return service.AuthContext{}, false
	}
	return service.AuthContext{UserID: userID, Role: role}, true
}

func unauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"error": "unauthenticated",
		"code":  "UNAUTHENTICATED",
	})
}

// writeServiceError maps the service error taxonomy to HTTP codes
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "FORBIDDEN"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "INVALID_TRANSITION"})
	case errors.Is(err, service.ErrOrderNotPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ORDER_NOT_PAID"})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "INVALID_STATE"})
	case errors.Is(err, service.ErrDuplicateRating):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "DUPLICATE"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_INPUT"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) createOrder(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), caller, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) getOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) transitionOrder(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	order, err := h.orders.Transition(c.Request.Context(), caller, orderID, req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":           order.ID,
		"fulfillment_status": order.FulfillmentStatus,
		"updated_at":         order.UpdatedAt,
	})
}

func (h *Handler) submitRating(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	var req service.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	resp, err := h.ratings.SubmitRating(c.Request.Context(), caller, orderID, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) paymentCallback(c *gin.Context) {
	var req service.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.orders.HandlePaymentCallback(c.Request.Context(), &req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (h *Handler) createListing(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var req service.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), caller, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *Handler) createAlert(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	var req service.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	alert, err := h.alerts.CreateAlert(c.Request.Context(), caller, &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) listAlerts(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), caller)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handler) deactivateAlert(c *gin.Context) {
	caller, ok := callerContext(c)
	if !ok {
		unauthenticated(c)
		return
	}

	alertID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}

	if err := h.alerts.DeactivateAlert(c.Request.Context(), caller, alertID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (h *Handler) getTrustScore(c *gin.Context) {
	sellerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid seller ID"})
		return
	}

	score, err := h.trustScores.GetScore(c.Request.Context(), sellerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *Handler) recentPrices(c *gin.Context) {
	crop := c.Query("crop")
	county := c.Query("county")
	if crop == "" || county == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "crop and county are required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	prices, err := h.listings.RecentPrices(c.Request.Context(), crop, county, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"observations": prices})
}

// runSweep is the scheduler-facing sweep trigger, authenticated by a
// shared bearer secret distinct from user auth.
func (h *Handler) runSweep(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if h.sweepSecret == "" || token == auth || token != h.sweepSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid sweep credentials", "code": "SWEEP_UNAUTHORIZED"})
		return
	}

	checked, triggered, err := h.alerts.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed", "code": "INTERNAL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checked":   checked,
		"triggered": triggered,
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
