package pushsvc

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/disiplinku/backend/core/notification"
)

// headProber checks media URLs with a HEAD request.
type headProber struct {
	timeout time.Duration
	client  *rest.Client
}

var _ notification.MediaProber = (*headProber)(nil)

func NewHeadProber(timeout time.Duration, client *rest.Client) *headProber {
	if client == nil {
		client = rest.DefaultClient
	}
	return &headProber{timeout: timeout, client: client}
}

func (p headProber) Probe(ctx context.Context, url string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	res, err := send(ctx, p.client, rest.Request{Method: rest.Method(http.MethodHead), BaseURL: url})
	if err != nil {
		return errors.Wrap(err, "probing media")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("media probe - status: %d", res.StatusCode)
	}
	return nil
}
