package push

import (
	"context"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/vqanh/storegate/internal/model"
	apperrors "github.com/vqanh/storegate/pkg/errors"
)

// Transport is the web-push send primitive. Implementations classify
// failures: an EndpointGone error means the subscription is dead and should
// be pruned, anything else is transient.
type Transport interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload []byte) error
}

// WebPushConfig carries the VAPID credentials configured once at process
// start.
type WebPushConfig struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
}

type webPushTransport struct {
	cfg WebPushConfig
}

func NewWebPushTransport(cfg WebPushConfig) Transport {
	return &webPushTransport{cfg: cfg}
}

func (t *webPushTransport) Send(ctx context.Context, sub *model.PushSubscription, payload []byte) error {
	s := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, s, &webpush.Options{
		Subscriber:      t.cfg.Subscriber,
		VAPIDPublicKey:  t.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: t.cfg.VAPIDPrivateKey,
		TTL:             t.cfg.TTL,
	})
	if err != nil {
		return apperrors.TransientSend(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return apperrors.EndpointGone(fmt.Errorf("push service returned %d", resp.StatusCode))
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.TransientSend(fmt.Errorf("push service returned %d: %s", resp.StatusCode, body))
	}
}
