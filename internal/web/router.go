package web

import (
	"net/http"
	"time"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/order"
	"marketplace-be/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Config struct {
	Env          string
	LoginURL     string
	CORSOrigins  []string
	SessionTTL   time.Duration
	SecureCookie bool
}

func setMode(env string) {
	switch env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}

// NewRouter builds the marketplace routes. Request ids, access logs, auth
// and rate limits wrap the engine at the net/http level.
func NewRouter(cfg Config, h *Handler, sessions session.Store) *gin.Engine {
	setMode(cfg.Env)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := order.RegisterValidators(v); err != nil {
			logger.L().Error("failed to register validators", zap.Error(err))
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", h.health)
	r.GET("/metrics", h.metricsSnapshot)

	site := r.Group("/")
	site.Use(SessionMiddleware(sessions, cfg.SessionTTL, cfg.SecureCookie), LocaleMiddleware())

	cart := site.Group("/cart")
	{
		cart.GET("/", h.cartDetail)
		cart.POST("/add/:listing_id/", h.cartAdd)
		cart.Match([]string{http.MethodGet, http.MethodPost}, "/change/:listing_id/:change", h.cartChange)
		cart.Match([]string{http.MethodGet, http.MethodPost}, "/remove/:listing_id/", h.cartRemove)
	}

	site.GET("/order/delivery_info/:id/", h.deliveryInfo)

	orders := site.Group("/order")
	orders.Use(RequireAuth(cfg.LoginURL))
	{
		orders.GET("/", h.orderList)
		orders.GET("/checkout/", h.checkoutPage)
		orders.POST("/checkout/", h.checkout)
		orders.GET("/payment/progress/", h.paymentProgress)
		orders.GET("/payment/:category/", h.paymentPage)
		orders.POST("/payment/:category/", h.pay)
		orders.GET("/:id/", h.orderDetail)
	}

	return r
}
