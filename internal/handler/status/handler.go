package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vqanh/storegate/internal/handler"
	"github.com/vqanh/storegate/internal/middleware"
	"github.com/vqanh/storegate/internal/service/gate"
	statusService "github.com/vqanh/storegate/internal/service/status"
)

type Handler struct {
	service statusService.Servicer
	gate    *gate.Gate
}

func NewHandler(service statusService.Servicer, gate *gate.Gate) *Handler {
	return &Handler{service: service, gate: gate}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	status := r.Group("/status")
	{
		status.GET("", h.GetStatus)
		status.POST("/refresh", h.RefreshStatus)
		status.POST("/overlay/hide", h.HideOverlay)
	}
}

type statusResponse struct {
	Status  interface{}     `json:"status"`
	Overlay gate.Directives `json:"overlay"`
}

// GetStatus is the poll target for storefront clients. The overlay decision
// is recomputed per request: route and caller identity can change without a
// status change.
func (h *Handler) GetStatus(c *gin.Context) {
	st := h.service.Status(c.Request.Context())

	route := c.DefaultQuery("route", "/")
	required := h.service.ShouldShowOverlay(st, route, middleware.IsAdmin(c))
	directives := h.gate.Apply(required)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(statusResponse{
		Status:  st,
		Overlay: directives,
	}))
}

// RefreshStatus forces a re-evaluation, bypassing the cache.
func (h *Handler) RefreshStatus(c *gin.Context) {
	st := h.service.Refresh(c.Request.Context())

	route := c.DefaultQuery("route", "/")
	required := h.service.ShouldShowOverlay(st, route, middleware.IsAdmin(c))
	directives := h.gate.Apply(required)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(statusResponse{
		Status:  st,
		Overlay: directives,
	}))
}

type hideOverlayRequest struct {
	Route string `json:"route"`
}

// HideOverlay is the client's dismissal attempt. While the overlay is
// required for this caller the attempt is rejected and the state snaps back
// to shown.
func (h *Handler) HideOverlay(c *gin.Context) {
	var req hideOverlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if req.Route == "" {
		req.Route = "/"
	}

	st := h.service.Status(c.Request.Context())
	required := h.service.ShouldShowOverlay(st, req.Route, middleware.IsAdmin(c))

	directives, ok := h.gate.RequestHide(required)
	if !ok {
		c.JSON(http.StatusConflict, handler.NewErrorResponse("overlay cannot be dismissed while the shop is closed"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(directives))
}
