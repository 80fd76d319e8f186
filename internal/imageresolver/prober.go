package imageresolver

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotAnImage is returned by Probe when the location answers with a non-image content type.
var ErrNotAnImage = errors.New("imageresolver: location is not an image")

// Prober turns image loads into load/error events by requesting each candidate location.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewProber creates a Prober. A nil client uses http.DefaultClient; timeout <= 0 disables the per-probe deadline.
func NewProber(client *http.Client, timeout time.Duration, logger *zap.Logger) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{client: client, timeout: timeout, logger: logger}
}

// Probe checks that location serves an image.
func (p *Prober) Probe(ctx context.Context, location string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, location, nil)
	if err != nil {
		return fmt.Errorf("imageresolver: build request for %s: %w", location, err)
	}
	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("imageresolver: load %s: %w", location, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("imageresolver: load %s: unexpected status %d", location, res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "" {
		media, _, err := mime.ParseMediaType(ct)
		if err != nil || !strings.HasPrefix(media, "image/") {
			return fmt.Errorf("%w: %s (%s)", ErrNotAnImage, location, ct)
		}
	}
	return nil
}

// Resolve walks cur from its active location, advancing on every load failure,
// and returns the first location that loads. It returns false once the cursor is exhausted;
// an exhausted or empty cursor issues no requests.
func (p *Prober) Resolve(ctx context.Context, cur *Cursor) (string, bool) {
	loc, ok := cur.Active()
	for ok {
		err := p.Probe(ctx, loc)
		if err == nil {
			return loc, true
		}
		if ctx.Err() != nil {
			// The walk was interrupted, not the image; keep the cursor where it is.
			return "", false
		}
		p.logger.Debug("image candidate failed", zap.String("location", loc), zap.Error(err))
		loc, ok = cur.Advance()
	}
	return "", false
}
