package push

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/repository"
	apperrors "github.com/vqanh/storegate/pkg/errors"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/metrics"
)

// DispatchResult aggregates per-subscription outcomes of one fan-out.
type DispatchResult struct {
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type DispatcherConfig struct {
	BatchSize   int
	BatchDelay  time.Duration
	SendTimeout time.Duration
}

// Dispatcher fans a notification out to registered subscriptions in bounded
// batches, classifies every delivery outcome, logs it, and prunes
// subscriptions the push service reports gone.
type Dispatcher struct {
	subs      repository.SubscriptionRepository
	logs      repository.NotificationLogRepository
	settings  repository.SettingsRepository
	transport Transport
	cfg       DispatcherConfig
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewDispatcher(
	subs repository.SubscriptionRepository,
	logs repository.NotificationLogRepository,
	settings repository.SettingsRepository,
	transport Transport,
	cfg DispatcherConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 100 * time.Millisecond
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		subs:      subs,
		logs:      logs,
		settings:  settings,
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// SendToOne delivers one prepared payload to one subscription and reports
// whether it was accepted. A terminal failure (endpoint gone) removes the
// subscription; every attempt gets a log row. Log write failures never mask
// the delivery outcome.
func (d *Dispatcher) SendToOne(ctx context.Context, sub *model.PushSubscription, payload *model.NotificationPayload, category model.NotificationCategory) bool {
	stamped := stamp(payload)
	body, err := stamped.Marshal()
	if err != nil {
		d.logger.Error(err, "failed to marshal payload")
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	sendErr := d.transport.Send(sendCtx, sub, body)

	notificationID, _ := uuid.Parse(stamped.Data["notificationId"])
	logRow := &model.NotificationLog{
		SubscriptionID: &sub.ID,
		NotificationID: notificationID,
		Title:          stamped.Title,
		Body:           stamped.Body,
		DataPayload:    mustJSON(stamped.Data),
	}

	gone := false
	if sendErr == nil {
		logRow.Status = model.DeliverySent
		d.metrics.PushSent.WithLabelValues(string(category)).Inc()
	} else {
		msg := sendErr.Error()
		logRow.Status = model.DeliveryFailed
		logRow.ErrorMessage = &msg

		gone = apperrors.IsCode(sendErr, apperrors.ErrEndpointGone)
		if gone {
			d.metrics.PushFailed.WithLabelValues(string(category), "gone").Inc()
		} else {
			d.metrics.PushFailed.WithLabelValues(string(category), "transient").Inc()
		}
	}

	// The log row references the subscription, so it must land before a
	// terminal failure prunes the row it points at.
	if err := d.logs.Create(ctx, logRow); err != nil {
		d.logger.Error(err, "failed to write delivery log", "subscription_id", sub.ID.String())
	}

	if gone {
		d.metrics.PushPruned.Inc()
		if err := d.subs.Remove(ctx, sub.Endpoint); err != nil {
			d.logger.Error(err, "failed to prune dead subscription", "endpoint", sub.Endpoint)
		}
	}

	return sendErr == nil
}

// SendToAll fans payload out to every active subscription, optionally
// filtered to one user. Batches run sequentially; sends within a batch run
// concurrently; a fixed delay between batches spaces the load on the push
// service. A failure on one subscription never aborts the rest.
func (d *Dispatcher) SendToAll(ctx context.Context, payload *model.NotificationPayload, category model.NotificationCategory, userID *uuid.UUID) (*DispatchResult, error) {
	if res := d.gate(ctx, category); res != nil {
		return res, nil
	}

	timer := prometheus.NewTimer(d.metrics.DispatchLatency)
	defer timer.ObserveDuration()

	subs, err := d.subs.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	result := &DispatchResult{}
	for start := 0; start < len(subs); start += d.cfg.BatchSize {
		end := start + d.cfg.BatchSize
		if end > len(subs) {
			end = len(subs)
		}
		batch := subs[start:end]
		d.metrics.DispatchBatches.Inc()

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, sub := range batch {
			wg.Add(1)
			go func(sub *model.PushSubscription) {
				defer wg.Done()
				ok := d.SendToOne(ctx, sub, payload, category)
				mu.Lock()
				if ok {
					result.Sent++
				} else {
					result.Failed++
				}
				mu.Unlock()
			}(sub)
		}
		wg.Wait()

		if end < len(subs) {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(d.cfg.BatchDelay):
			}
		}
	}

	d.logger.Info("dispatch complete",
		"category", string(category),
		"sent", result.Sent,
		"failed", result.Failed,
	)
	return result, nil
}

// gate applies the admin-configured throttles. A nil return means dispatch
// may proceed. Settings read failures fail open: a broken settings row must
// not silence notifications.
func (d *Dispatcher) gate(ctx context.Context, category model.NotificationCategory) *DispatchResult {
	s, err := d.settings.Get(ctx)
	if err != nil {
		d.logger.Error(err, "failed to load notification settings, proceeding")
		return nil
	}
	if !s.CategoryEnabled(category) {
		return &DispatchResult{Skipped: true, Reason: "category disabled"}
	}
	if s.InQuietHours(time.Now()) {
		return &DispatchResult{Skipped: true, Reason: "quiet hours"}
	}
	if s.MaxDaily > 0 {
		midnight := startOfDay(time.Now())
		count, err := d.logs.CountSince(ctx, midnight)
		if err != nil {
			d.logger.Error(err, "failed to count sent notifications, proceeding")
			return nil
		}
		if count >= int64(s.MaxDaily) {
			return &DispatchResult{Skipped: true, Reason: "daily cap reached"}
		}
	}
	return nil
}

// startOfDay returns midnight of t's calendar day in t's own location. The
// daily cap counts from local midnight, not UTC midnight.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// stamp copies the payload and injects the fresh notification id and send
// timestamp the client uses for dedup and interaction reporting.
func stamp(p *model.NotificationPayload) *model.NotificationPayload {
	out := *p
	out.Data = make(map[string]string, len(p.Data)+2)
	for k, v := range p.Data {
		out.Data[k] = v
	}
	out.Data["notificationId"] = uuid.New().String()
	out.Data["timestamp"] = time.Now().Format(time.RFC3339)
	if out.URL != "" {
		out.Data["url"] = out.URL
	}
	return &out
}

func mustJSON(data map[string]string) []byte {
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}
