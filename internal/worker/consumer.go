package worker

import (
	"context"
	"encoding/json"

	"github.com/vqanh/storegate/internal/model"
	"github.com/vqanh/storegate/internal/service/push"
	"github.com/vqanh/storegate/pkg/logger"
	"github.com/vqanh/storegate/pkg/messaging"
)

// EventConsumer subscribes to the status-change channel and drives push
// fan-out. Keeping fan-out in the worker binary means a slow
// push service never delays an HTTP request or a status refresh.
type EventConsumer struct {
	broker     messaging.Broker
	dispatcher *push.Dispatcher
	logger     *logger.Logger
}

func NewEventConsumer(broker messaging.Broker, dispatcher *push.Dispatcher, logger *logger.Logger) *EventConsumer {
	return &EventConsumer{
		broker:     broker,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (c *EventConsumer) Start(ctx context.Context) error {
	statusCh, err := c.broker.Subscribe(ctx, model.ChannelStatusChanged)
	if err != nil {
		return err
	}

	c.logger.Info("event consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("event consumer stopping")
			return nil
		case msg, ok := <-statusCh:
			if !ok {
				return nil
			}
			c.handleStatusChanged(ctx, msg)
		}
	}
}

func (c *EventConsumer) handleStatusChanged(ctx context.Context, raw []byte) {
	var evt model.StatusChangedEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		c.logger.Error(err, "failed to decode status change event")
		return
	}

	payload := push.ShopStatusNotification(evt.IsOpen, evt.Message)
	result, err := c.dispatcher.SendToAll(ctx, payload, model.CategoryShopStatus, nil)
	if err != nil {
		c.logger.Error(err, "status change fan-out failed", "event_id", evt.ID.String())
		return
	}
	c.logger.Info("status change fan-out complete",
		"event_id", evt.ID.String(),
		"sent", result.Sent,
		"failed", result.Failed,
	)
}
