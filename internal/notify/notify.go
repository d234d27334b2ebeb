// Package notify turns poll failures into user-facing messages and, for
// rejected credentials, a desktop notification.
package notify

import (
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/glmusage/internal/logging"
	"github.com/janekbaraniewski/glmusage/internal/providers/zai"
)

const (
	alertTitle = "GLM usage monitor"

	// DefaultCooldown limits repeated auth alerts while polling keeps failing.
	DefaultCooldown = 10 * time.Minute
)

// Message is the user-facing text for a poll failure.
func Message(err error) string {
	switch zai.Classify(err) {
	case zai.KindAuth:
		return "Authentication failed: the auth token is invalid or expired. Run `glmusage config set-token` to update it."
	case zai.KindConnectivity, zai.KindTimeout:
		return "Cannot reach the usage API. Check your network connection; polling will retry."
	default:
		return "Fetching usage failed: " + err.Error()
	}
}

type Reporter struct {
	enabled  bool
	log      *zap.Logger
	send     func(title, body string) error
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastAlert time.Time
}

// New creates a Reporter. With enabled false it only logs.
func New(enabled bool, log *zap.Logger) *Reporter {
	return &Reporter{
		enabled:  enabled,
		log:      logging.OrNop(log),
		send:     func(title, body string) error { return beeep.Notify(title, body, "") },
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// Handle reports err. It is meant to be the poller's error hook.
func (r *Reporter) Handle(err error) {
	if err == nil {
		return
	}
	msg := Message(err)
	switch zai.Classify(err) {
	case zai.KindAuth:
		r.log.Error(msg)
		r.alert(msg)
	case zai.KindConnectivity, zai.KindTimeout:
		r.log.Warn(msg)
	case zai.KindCanceled:
		r.log.Debug(msg)
	default:
		r.log.Error(msg)
	}
}

func (r *Reporter) alert(body string) {
	if !r.enabled {
		return
	}
	r.mu.Lock()
	now := r.now()
	if !r.lastAlert.IsZero() && now.Sub(r.lastAlert) < r.cooldown {
		r.mu.Unlock()
		return
	}
	r.lastAlert = now
	r.mu.Unlock()

	if err := r.send(alertTitle, body); err != nil {
		r.log.Debug("desktop notification failed", zap.Error(err))
	}
}
