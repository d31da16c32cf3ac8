package push

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vqanh/storegate/internal/handler"
	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	"github.com/vqanh/storegate/internal/service/subscription"
	apperrors "github.com/vqanh/storegate/pkg/errors"
)

type Handler struct {
	subs           subscription.Servicer
	logs           repository.NotificationLogRepository
	vapidPublicKey string
}

func NewHandler(subs subscription.Servicer, logs repository.NotificationLogRepository, vapidPublicKey string) *Handler {
	return &Handler{subs: subs, logs: logs, vapidPublicKey: vapidPublicKey}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	push := r.Group("/push")
	{
		push.GET("/vapid-key", h.VAPIDKey)
		push.POST("/subscribe", h.Subscribe)
		push.POST("/unsubscribe", h.Unsubscribe)
		push.POST("/verify", h.Verify)
		push.POST("/interactions", h.LogInteraction)
	}
}

// VAPIDKey hands the public key to clients for PushManager.subscribe.
func (h *Handler) VAPIDKey(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"public_key": h.vapidPublicKey}))
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
	UserID      string          `json:"user_id"`
	BrowserInfo json.RawMessage `json:"browser_info"`
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var userID *uuid.UUID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid user ID"))
			return
		}
		userID = &id
	}

	sub := &model.PushSubscription{
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
	}

	id, err := h.subs.Subscribe(c.Request.Context(), sub, userID, c.Request.UserAgent(), req.BrowserInfo)
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrInvalidSubscription) {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(gin.H{"id": id}))
}

type endpointRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	var req endpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.subs.Unsubscribe(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) Verify(c *gin.Context) {
	var req endpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	active, err := h.subs.Verify(c.Request.Context(), req.Endpoint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"active": active}))
}

type interactionRequest struct {
	Action         string `json:"action" binding:"required,oneof=click close delivered"`
	NotificationID string `json:"notification_id" binding:"required"`
	Timestamp      string `json:"timestamp"`
}

// LogInteraction records a client-reported click/close. The write runs
// detached: interaction logging must never slow down or fail the client.
func (h *Handler) LogInteraction(c *gin.Context) {
	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	notificationID, err := uuid.Parse(req.NotificationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid notification ID"))
		return
	}

	status := model.DeliveryDelivered
	if req.Action == "click" {
		status = model.DeliveryClicked
	}

	go func() {
		if err := h.logs.UpdateStatus(context.Background(), notificationID, status); err != nil {
			log.Error().Err(err).Str("notification_id", req.NotificationID).Msg("failed to log interaction")
		}
	}()

	c.JSON(http.StatusAccepted, handler.NewSuccessResponse(nil))
}
