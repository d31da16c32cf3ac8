package status

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/messaging"
	"github.com/vqanh/storegate/pkg/metrics"
)

const statusCacheKey = "shop_status"

// Servicer is the process-wide cached view of the shop status.
type Servicer interface {
	Status(ctx context.Context) *model.ShopStatus
	Refresh(ctx context.Context) *model.ShopStatus
	ShouldShowOverlay(status *model.ShopStatus, route string, isAdmin bool) bool
}

type Config struct {
	CacheTTL        time.Duration
	RefreshInterval time.Duration
}

type Service struct {
	hoursRepo        repository.HoursRepository
	announcementRepo repository.AnnouncementRepository
	broker           messaging.Broker
	cache            *cache.Cache
	cfg              Config
	logger           *logger.Logger
	metrics          *metrics.Metrics

	mu       sync.Mutex
	lastKind model.StatusKind
}

func NewService(
	hoursRepo repository.HoursRepository,
	announcementRepo repository.AnnouncementRepository,
	broker messaging.Broker,
	cfg Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		hoursRepo:        hoursRepo,
		announcementRepo: announcementRepo,
		broker:           broker,
		cache:            cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		cfg:              cfg,
		logger:           logger,
		metrics:          metrics,
	}
}

// Status returns the cached status, re-evaluating on a cache miss.
func (s *Service) Status(ctx context.Context) *model.ShopStatus {
	if v, ok := s.cache.Get(statusCacheKey); ok {
		return v.(*model.ShopStatus)
	}
	return s.Refresh(ctx)
}

// Refresh re-evaluates the status and replaces the cached value. Concurrent
// refreshes are last-completed-wins; evaluation is cheap and side-effect
// free so that is acceptable.
//
// When the settings store is unreachable the shop is treated as open:
// blocking every customer because a config read failed is worse than
// serving during a closed window.
func (s *Service) Refresh(ctx context.Context) *model.ShopStatus {
	now := time.Now()
	s.metrics.StatusRefreshes.Inc()

	week, err := s.hoursRepo.List(ctx)
	if err != nil {
		s.logger.Error(err, "failed to load operating hours, failing open")
		st := &model.ShopStatus{
			IsOpen:      true,
			Kind:        model.StatusOpen,
			Message:     defaultOpenMessage,
			CurrentTime: now,
		}
		s.cache.Set(statusCacheKey, st, cache.DefaultExpiration)
		return st
	}

	active, err := s.announcementRepo.GetActive(ctx, now)
	if err != nil {
		s.logger.Error(err, "failed to load active announcement, ignoring")
		active = nil
	}

	st := Evaluate(now, week, active)
	s.cache.Set(statusCacheKey, st, cache.DefaultExpiration)
	s.publishTransition(ctx, st)
	return st
}

// publishTransition emits a status-changed event when the status kind flips.
// Delivery failures are logged and dropped: push fan-out is best effort.
func (s *Service) publishTransition(ctx context.Context, st *model.ShopStatus) {
	s.mu.Lock()
	prev := s.lastKind
	s.lastKind = st.Kind
	s.mu.Unlock()

	if prev == "" || prev == st.Kind {
		return
	}

	s.metrics.StatusTransitions.WithLabelValues(string(prev), string(st.Kind)).Inc()

	if s.broker == nil {
		return
	}
	evt := &model.StatusChangedEvent{
		ID:       uuid.New(),
		From:     prev,
		To:       st.Kind,
		IsOpen:   st.IsOpen,
		Title:    st.Title,
		Message:  st.Message,
		Occurred: st.CurrentTime,
	}
	if err := s.broker.Publish(ctx, model.ChannelStatusChanged, evt); err != nil {
		s.logger.Error(err, "failed to publish status change event")
	}
}

// StartRefresher re-evaluates the status on a fixed cadence until ctx is
// cancelled. This is the only server-triggered refresh; clients may also
// force one through the refresh endpoint.
func (s *Service) StartRefresher(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	s.logger.Info("starting status refresher", "interval", s.cfg.RefreshInterval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping status refresher")
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// ShouldShowOverlay decides whether the blocking overlay applies to the
// caller. Admin-area and auth routes are excepted, as are authenticated
// admins anywhere. The exception list is evaluated per request because a
// caller can navigate into an excepted route after the overlay was shown.
func (s *Service) ShouldShowOverlay(status *model.ShopStatus, route string, isAdmin bool) bool {
	if status == nil || status.IsOpen {
		return false
	}
	if isAdmin {
		return false
	}
	return !isExceptedRoute(route)
}

func isExceptedRoute(route string) bool {
	for _, prefix := range []string{"/admin", "/auth", "/login", "/register"} {
		if strings.HasPrefix(route, prefix) {
			return true
		}
	}
	return false
}
