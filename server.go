package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/quickops/qcommerce_backend/agent"
	"github.com/quickops/qcommerce_backend/allocation"
	"github.com/quickops/qcommerce_backend/config"
	"github.com/quickops/qcommerce_backend/models"
	"github.com/quickops/qcommerce_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("qcommerce-backend")

// opsAgent is constructed once storage is up; the readiness gate keeps app
// endpoints at 503 until then.
var opsAgent *agent.Agent

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

type queryRequest struct {
	Query  string `json:"query" binding:"required"`
	UserId string `json:"user_id"`
}

type allocationRequest struct {
	Product    string `json:"product" binding:"required"`
	TotalUnits int    `json:"total_units" binding:"required,gt=0"`
	Strategy   string `json:"strategy" binding:"omitempty,allocstrategy"`
}

type restockRequest struct {
	City     string `json:"city" binding:"required"`
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type alertRequest struct {
	Message    string   `json:"message" binding:"required"`
	Priority   string   `json:"priority" binding:"omitempty,oneof=low medium high"`
	Recipients []string `json:"recipients"`
}

func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("allocstrategy", func(fl validator.FieldLevel) bool {
			return fl.Field().String() == allocation.StrategyDemandBased
		})
	}
}

// respondDomainError maps the error taxonomy onto status codes: bad input is
// the caller's fault, a missing record is descriptive, everything else is the
// store.
func respondDomainError(c *gin.Context, err error) {
	switch {
	case utils.IsInputError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case utils.IsStorageError(err):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func agentReady(c *gin.Context) bool {
	if opsAgent == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "agent not initialized"})
		return false
	}
	return true
}

func queryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !agentReady(c) {
			return
		}
		var req queryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: query is required"})
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "ProcessQuery")
		defer span.End()

		response := opsAgent.ProcessQuery(ctx, req.Query)
		c.JSON(http.StatusOK, gin.H{
			"response":  response,
			"query":     req.Query,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func insightsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !agentReady(c) {
			return
		}
		insights, err := opsAgent.GetInsights(c.Request.Context())
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"insights":  insights,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func allocateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !agentReady(c) {
			return
		}
		var req allocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product, positive total_units and a supported strategy are required"})
			return
		}

		result, err := opsAgent.Allocate(c.Request.Context(), req.Product, req.TotalUnits, req.Strategy)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Allocation completed",
			"result":    result,
			"action_id": result.ActionID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func restockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !agentReady(c) {
			return
		}
		var req restockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "city, product and a positive quantity are required"})
			return
		}

		summary, actionID, err := opsAgent.TriggerRestock(c.Request.Context(), req.City, req.Product, req.Quantity)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Restock order triggered",
			"result":    summary,
			"action_id": actionID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func alertHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !agentReady(c) {
			return
		}
		var req alertRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required; priority must be low, medium or high"})
			return
		}

		summary, actionID, err := opsAgent.SendAlert(c.Request.Context(), req.Message, req.Priority, req.Recipients)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":   "Alert sent",
			"result":    summary,
			"action_id": actionID,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

func daysParam(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.DefaultQuery("days", "7"))
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, utils.NewInputError("days", fmt.Sprintf("must be a positive integer, got %q", raw))
	}
	return days, nil
}

func salesDataHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		days, err := daysParam(c)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		rows, err := models.GetSalesAnalytics(c.Request.Context(), days)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func inventoryDataHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := models.GetInventoryStatus(c.Request.Context())
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func cityDataHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		days, err := daysParam(c)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		rows, err := models.GetCityPerformance(c.Request.Context(), days)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func actionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		rows, err := models.GetRecentActions(c.Request.Context(), limit)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":            "healthy",
			"timestamp":         time.Now().Format(time.RFC3339),
			"agent_initialized": opsAgent != nil,
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()
	registerValidations()

	// Shutdown coordination.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP; until the store is ready we return 503 for
	// app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist; allow all otherwise.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting; worth enabling when /query fans out to a paid
	// hosted model.
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=60
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		config.ConnectRedis()
		if client := config.GetRedisDB(); client != nil {
			limit := int64(60)
			if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
					limit = n
				}
			}
			windowSec := int64(60)
			if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
					windowSec = n
				}
			}
			rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
			r.Use(rateLimiter.RateLimitMiddleware)
		}
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/query", queryHandler())
	r.GET("/insights", insightsHandler())
	r.POST("/allocate", allocateHandler())
	r.POST("/restock", restockHandler())
	r.POST("/alert", alertHandler())
	r.GET("/health", healthHandler())
	r.GET("/data/sales", salesDataHandler())
	r.GET("/data/inventory", inventoryDataHandler())
	r.GET("/data/cities", cityDataHandler())
	r.GET("/actions", actionsHandler())
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect storage after the port is open.
	config.ConnectDatabaseWithRetry()

	db := config.GetDB()
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Error("failed to expose sql.DB for shutdown: " + err.Error())
	}
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	opsAgent = agent.New()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{"correlationId": cid}).Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
