package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vqanh/storegate/internal/handler"
	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	"github.com/vqanh/storegate/internal/service/push"
	statusService "github.com/vqanh/storegate/internal/service/status"
	"github.com/vqanh/storegate/internal/service/subscription"
)

type Handler struct {
	hoursRepo        repository.HoursRepository
	announcementRepo repository.AnnouncementRepository
	settingsRepo     repository.SettingsRepository
	logsRepo         repository.NotificationLogRepository
	subs             subscription.Servicer
	dispatcher       *push.Dispatcher
	status           statusService.Servicer
	validate         *validator.Validate
}

func NewHandler(
	hoursRepo repository.HoursRepository,
	announcementRepo repository.AnnouncementRepository,
	settingsRepo repository.SettingsRepository,
	logsRepo repository.NotificationLogRepository,
	subs subscription.Servicer,
	dispatcher *push.Dispatcher,
	status statusService.Servicer,
) *Handler {
	return &Handler{
		hoursRepo:        hoursRepo,
		announcementRepo: announcementRepo,
		settingsRepo:     settingsRepo,
		logsRepo:         logsRepo,
		subs:             subs,
		dispatcher:       dispatcher,
		status:           status,
		validate:         validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/hours", h.ListHours)
		admin.PUT("/hours", h.UpdateHours)

		admin.GET("/announcements", h.ListAnnouncements)
		admin.POST("/announcements", h.CreateAnnouncement)
		admin.GET("/announcements/:id", h.GetAnnouncement)
		admin.PUT("/announcements/:id", h.UpdateAnnouncement)
		admin.DELETE("/announcements/:id", h.DeleteAnnouncement)

		admin.GET("/notification-settings", h.GetSettings)
		admin.PUT("/notification-settings", h.UpdateSettings)

		admin.POST("/broadcast", h.Broadcast)

		admin.GET("/subscriptions", h.ListSubscriptions)
		admin.DELETE("/subscriptions/:id", h.DeleteSubscription)

		admin.GET("/delivery-stats", h.DeliveryStats)
	}
}

func (h *Handler) ListHours(c *gin.Context) {
	entries, err := h.hoursRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

type hoursEntry struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	OpenTime  string `json:"open_time" validate:"required"`
	CloseTime string `json:"close_time" validate:"required"`
	IsOpen    bool   `json:"is_open"`
}

type updateHoursRequest struct {
	Entries []hoursEntry `json:"entries" validate:"required,len=7,dive"`
}

// UpdateHours replaces the full weekly schedule in one shot. Each open day
// must satisfy open < close; a bad entry rejects the whole update.
func (h *Handler) UpdateHours(c *gin.Context) {
	var req updateHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	entries := make([]*model.OperatingHours, 0, len(req.Entries))
	for _, e := range req.Entries {
		entry := &model.OperatingHours{
			DayOfWeek: e.DayOfWeek,
			OpenTime:  e.OpenTime,
			CloseTime: e.CloseTime,
			IsOpen:    e.IsOpen,
		}
		if err := entry.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
		entries = append(entries, entry)
	}

	if err := h.hoursRepo.BulkUpdate(c.Request.Context(), entries); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	// The schedule changed, so the cached status may be stale.
	st := h.status.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(st))
}

func (h *Handler) ListAnnouncements(c *gin.Context) {
	list, err := h.announcementRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

type announcementRequest struct {
	Title       string    `json:"title" binding:"required"`
	Message     string    `json:"message" binding:"required"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	ShowOverlay bool      `json:"show_overlay"`
	IsActive    bool      `json:"is_active"`
}

func (h *Handler) CreateAnnouncement(c *gin.Context) {
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	a := &model.Announcement{
		Title:       req.Title,
		Message:     req.Message,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ShowOverlay: req.ShowOverlay,
		IsActive:    req.IsActive,
	}
	if err := a.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.announcementRepo.Create(c.Request.Context(), a); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	h.status.Refresh(c.Request.Context())
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(a))
}

func (h *Handler) GetAnnouncement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid announcement ID"))
		return
	}

	a, err := h.announcementRepo.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) UpdateAnnouncement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid announcement ID"))
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	a := &model.Announcement{
		ID:          id,
		Title:       req.Title,
		Message:     req.Message,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		ShowOverlay: req.ShowOverlay,
		IsActive:    req.IsActive,
	}
	if err := a.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.announcementRepo.Update(c.Request.Context(), a); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	h.status.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(a))
}

func (h *Handler) DeleteAnnouncement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid announcement ID"))
		return
	}

	if err := h.announcementRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	h.status.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.settingsRepo.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(s))
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var s model.NotificationSettings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.settingsRepo.Update(c.Request.Context(), &s); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(&s))
}

type broadcastRequest struct {
	Title    string `json:"title" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Category string `json:"category" binding:"required,oneof=shop_status order_status special_announcement marketing"`
	URL      string `json:"url"`
}

// Broadcast fans an ad-hoc notification out to every active subscription and
// reports partial results: even when some sends fail the counts come back.
func (h *Handler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	category := model.NotificationCategory(req.Category)
	payload := push.ForCategory(category, req.Title, req.Message, req.URL)

	result, err := h.dispatcher.SendToAll(c.Request.Context(), payload, category, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.subs.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(subs))
}

func (h *Handler) DeleteSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid subscription ID"))
		return
	}

	if err := h.subs.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// DeliveryStats aggregates the log over a trailing window (default 7 days).
func (h *Handler) DeliveryStats(c *gin.Context) {
	days := 7
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	since := time.Now().AddDate(0, 0, -days)
	stats, err := h.logsRepo.Stats(c.Request.Context(), since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(stats))
}
