package handler

import (
	appcart "github.com/dinecart/backend/internal/application/cart"
	"github.com/dinecart/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler exposes the cart engine over HTTP
type CartHandler struct {
	BaseHandler
	service  *appcart.CartService
	checkout *appcart.CheckoutService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(service *appcart.CartService, checkout *appcart.CheckoutService) *CartHandler {
	return &CartHandler{service: service, checkout: checkout}
}

// RegisterRoutes registers cart routes on the given router group
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	carts := rg.Group("/carts")
	{
		carts.GET("/current", h.GetCurrentCart)
		carts.POST("", h.EnsureCart)
		carts.GET("/:id", h.GetSummary)
		carts.PUT("/:id/items", h.SetItems)
		carts.POST("/:id/items/increment", h.IncrementItems)
		carts.POST("/:id/items/remove", h.RemoveItems)
		carts.POST("/:id/checkout", h.Checkout)
	}
}

func (h *CartHandler) resolveActor(c *gin.Context, tenantID uuid.UUID, tableCode string) (uuid.UUID, bool) {
	actorID, err := h.service.ResolveActor(tenantID, getActorID(c), tableCode)
	if err != nil {
		h.HandleError(c, err)
		return uuid.Nil, false
	}
	return actorID, true
}

// GetCurrentCart returns the caller's open cart, or an empty body when none
// exists.
func (h *CartHandler) GetCurrentCart(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "A tenant is required")
		return
	}
	actorID, ok := h.resolveActor(c, tenantID, c.Query("table_code"))
	if !ok {
		return
	}

	cartResp, err := h.service.GetOpenCart(c.Request.Context(), tenantID, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cartResp)
}

// EnsureCart returns the caller's open cart or creates one
func (h *CartHandler) EnsureCart(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "A tenant is required")
		return
	}

	var req appcart.EnsureCartRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, middleware.ValidationMessage(err))
			return
		}
	}
	actorID, ok := h.resolveActor(c, tenantID, req.TableCode)
	if !ok {
		return
	}

	cartResp, err := h.service.EnsureCart(c.Request.Context(), tenantID, actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), tenantID, cartResp.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, summary)
}

// GetSummary returns the full cart read model: cart, items, totals
func (h *CartHandler) GetSummary(c *gin.Context) {
	tenantID, cartID, ok := h.tenantAndCart(c)
	if !ok {
		return
	}
	summary, err := h.service.Summarize(c.Request.Context(), tenantID, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// SetItems applies absolute-set semantics to the cart's line items
func (h *CartHandler) SetItems(c *gin.Context) {
	tenantID, cartID, ok := h.tenantAndCart(c)
	if !ok {
		return
	}
	var req appcart.SetItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	if err := h.service.SetItems(c.Request.Context(), tenantID, cartID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.summaryResponse(c, tenantID, cartID)
}

// IncrementItems applies signed deltas to the cart's line items
func (h *CartHandler) IncrementItems(c *gin.Context) {
	tenantID, cartID, ok := h.tenantAndCart(c)
	if !ok {
		return
	}
	var req appcart.IncrementItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	if err := h.service.IncrementItems(c.Request.Context(), tenantID, cartID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.summaryResponse(c, tenantID, cartID)
}

// RemoveItems deletes the named line items
func (h *CartHandler) RemoveItems(c *gin.Context) {
	tenantID, cartID, ok := h.tenantAndCart(c)
	if !ok {
		return
	}
	var req appcart.RemoveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.ValidationMessage(err))
		return
	}
	if err := h.service.RemoveItems(c.Request.Context(), tenantID, cartID, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.summaryResponse(c, tenantID, cartID)
}

// Checkout finalizes the cart into an order and returns the receipt
func (h *CartHandler) Checkout(c *gin.Context) {
	tenantID, cartID, ok := h.tenantAndCart(c)
	if !ok {
		return
	}
	var req appcart.CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, middleware.ValidationMessage(err))
			return
		}
	}
	receipt, err := h.checkout.Checkout(c.Request.Context(), tenantID, cartID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

func (h *CartHandler) tenantAndCart(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "A tenant is required")
		return uuid.Nil, uuid.Nil, false
	}
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cart id")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, cartID, true
}

func (h *CartHandler) summaryResponse(c *gin.Context, tenantID, cartID uuid.UUID) {
	summary, err := h.service.Summarize(c.Request.Context(), tenantID, cartID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
