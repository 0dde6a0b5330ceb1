// Package syncer keeps the store's ticket collection eventually
// consistent with the backend. It prefers the gateway's push feed when
// one exists and falls back to fixed-interval polling otherwise; the rest
// of the client never learns which of the two is active.
package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atikhonov/helpdesk/internal/client/gateway"
	"github.com/atikhonov/helpdesk/internal/client/store"
)

// Status is the user-visible backend connectivity indicator.
type Status string

const (
	// StatusSyncing is shown while a fetch is in flight.
	StatusSyncing Status = "syncing"
	// StatusConnected is shown after a successful fetch.
	StatusConnected Status = "connected"
	// StatusError is shown after a failed fetch. The previous ticket
	// collection stays in place.
	StatusError Status = "error"
)

// DefaultInterval is the polling cadence when the gateway has no push
// feed. The exact value is a freshness/load tradeoff, not a correctness
// property.
const DefaultInterval = 7 * time.Second

// Controller drives refreshes of the store from the gateway.
type Controller struct {
	gw       gateway.Gateway
	store    *store.Store
	interval time.Duration
	log      *zap.Logger
	onStatus func(Status)
}

// New creates a controller. onStatus may be nil; interval <= 0 gets
// DefaultInterval.
func New(gw gateway.Gateway, st *store.Store, interval time.Duration, log *zap.Logger, onStatus func(Status)) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{gw: gw, store: st, interval: interval, log: log, onStatus: onStatus}
}

func (c *Controller) setStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

// Start restores the session, performs one foreground refresh when a
// session exists, and launches the background refresh loop. It returns
// once the background work is scheduled; cancellation of ctx stops
// everything.
func (c *Controller) Start(ctx context.Context) {
	if sess := c.gw.RestoreSession(); sess != nil {
		c.store.SetSession(sess)
		c.store.SetView(store.ViewDashboard)
		c.Refresh(ctx)
	}

	if sub, ok := c.gw.(gateway.Subscribable); ok {
		subscription, err := sub.SubscribeTicketChanges(ctx, func() { c.Refresh(ctx) })
		if err == nil {
			c.log.Info("ticket change feed subscribed")
			go func() {
				<-ctx.Done()
				_ = subscription.Close()
			}()
			return
		}
		c.log.Warn("change feed unavailable, falling back to polling", zap.Error(err))
	}

	go c.poll(ctx)
}

// poll refreshes on a fixed cadence. Failures do not back off; every tick
// retries unconditionally.
func (c *Controller) poll(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh re-fetches the visible ticket collection and replaces the
// store's copy wholesale. On failure the previous collection stays put
// (stale-but-present beats empty) and only the status indicator changes.
// Overlapping refreshes are allowed; whichever response lands last wins.
func (c *Controller) Refresh(ctx context.Context) {
	c.setStatus(StatusSyncing)

	tickets, err := c.gw.ListTickets(ctx, c.store.Session())
	if err != nil {
		c.log.Error("ticket refresh failed", zap.Error(err))
		c.setStatus(StatusError)
		return
	}

	c.store.ReplaceTickets(tickets)
	c.setStatus(StatusConnected)
}
