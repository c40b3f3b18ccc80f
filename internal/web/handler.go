package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"marketplace-be/internal/cart"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/order"
	"marketplace-be/internal/payment"
	"marketplace-be/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	cart     cart.Service
	orders   order.Service
	payments payment.Service
	metrics  *metrics.Registry
	checks   map[string]HealthCheck
}

func NewHandler(c cart.Service, o order.Service, p payment.Service, m *metrics.Registry, checks map[string]HealthCheck) *Handler {
	return &Handler{cart: c, orders: o, payments: p, metrics: m, checks: checks}
}

func listingID(c *gin.Context) (int64, bool) {
	id, ok := utils.ParseID(c.Param("listing_id"))
	if !ok {
		fail(c, cart.ErrListingNotFound)
	}
	return id, ok
}

func viewerFrom(c *gin.Context) order.Viewer {
	ctx := c.Request.Context()
	id, _ := utils.GetUserIDFromContext(ctx)
	return order.Viewer{
		UserID:  id,
		Email:   utils.GetUserEmailFromContext(ctx),
		IsStaff: utils.IsStaff(ctx),
	}
}

func (h *Handler) cartAdd(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	qty := cart.ParseQuantity(c.PostForm("quantity"))
	if err := h.cart.Add(c.Request.Context(), sessionFrom(c), id, qty); err != nil {
		fail(c, err)
		return
	}

	next := c.GetHeader("Referer")
	if next == "" {
		next = "/cart/"
	}
	c.Redirect(http.StatusFound, next)
}

func (h *Handler) cartChange(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	change := strings.Trim(c.Param("change"), "/")
	if err := h.cart.Change(c.Request.Context(), sessionFrom(c), id, change); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/cart/")
}

func (h *Handler) cartRemove(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	if err := h.cart.Remove(c.Request.Context(), sessionFrom(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/cart/")
}

func (h *Handler) cartDetail(c *gin.Context) {
	dto, err := h.cart.Summary(c.Request.Context(), sessionFrom(c), currencyFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (h *Handler) checkoutPage(c *gin.Context) {
	page, err := h.orders.CheckoutPage(c.Request.Context(), sessionFrom(c), viewerFrom(c), currencyFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func (h *Handler) checkout(c *gin.Context) {
	sess := sessionFrom(c)
	if current, err := cart.FromSession(sess); err != nil || current.IsEmpty() {
		fail(c, cart.ErrCartEmpty)
		return
	}

	var in order.CheckoutInput
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusOK, gin.H{"errors": order.TranslateValidation(err)})
		return
	}
	// JSON bodies carry a real boolean; only HTML forms send the checkbox.
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		in.IsFreeDelivery = checkbox(c.PostForm("is_free_delivery"))
	}

	res, err := h.orders.Checkout(c.Request.Context(), sess, viewerFrom(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Failed() {
		c.JSON(http.StatusOK, gin.H{"errors": res.Errors})
		return
	}
	c.Redirect(http.StatusFound, res.Redirect)
}

func (h *Handler) deliveryInfo(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		fail(c, order.ErrDeliveryCategoryNotFound)
		return
	}

	info, err := h.orders.DeliveryInfo(c.Request.Context(), id, currencyFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) orderDetail(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		fail(c, order.ErrOrderNotFound)
		return
	}

	dto, err := h.orders.GetOrderDetail(c.Request.Context(), sessionFrom(c), viewerFrom(c), id, currencyFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) orderList(c *gin.Context) {
	list, err := h.orders.ListOrders(c.Request.Context(), viewerFrom(c),
		queryInt(c, "page"), queryInt(c, "limit"), currencyFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func paymentCategory(c *gin.Context) (payment.Category, bool) {
	category := payment.Category(c.Param("category"))
	if !category.Valid() {
		fail(c, payment.ErrUnknownCategory)
		return "", false
	}
	return category, true
}

func (h *Handler) paymentPage(c *gin.Context) {
	category, ok := paymentCategory(c)
	if !ok {
		return
	}

	page, err := h.payments.PaymentPage(c.Request.Context(), sessionFrom(c), category, currencyFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) pay(c *gin.Context) {
	if _, ok := paymentCategory(c); !ok {
		return
	}

	next, err := h.payments.Pay(c.Request.Context(), sessionFrom(c), c.PostForm("account_number"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, next)
}

func (h *Handler) paymentProgress(c *gin.Context) {
	p, err := h.payments.Progress(c.Request.Context(), sessionFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) health(c *gin.Context) {
	status := http.StatusOK
	out := gin.H{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			out[name] = err.Error()
			continue
		}
		out[name] = "ok"
	}
	c.JSON(status, out)
}

func (h *Handler) metricsSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
