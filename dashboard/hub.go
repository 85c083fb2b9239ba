package dashboard

import (
	"context"
	"errors"
	"sync"

	"spendora-backend/aggregate"
	"spendora-backend/rates"
)

// ErrSessionEnded is the cancel cause of a subscription whose session signed out.
var ErrSessionEnded = errors.New("session ended")

// Hub tracks the controllers of open live views so that sign-outs and preference
// changes reach them while they are running.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Subscription is one open live view.
type Subscription struct {
	principal string
	session   string
	ctrl      *Controller
	refresh   chan struct{}
	cancel    context.CancelCauseFunc
}

func NewHub() *Hub {
	return &Hub{subs: map[*Subscription]struct{}{}}
}

// Attach registers ctrl for principal and session. The returned context is
// cancelled when the session ends or the subscription is detached.
func (h *Hub) Attach(ctx context.Context, principal, session string, ctrl *Controller) (*Subscription, context.Context) {
	ctx, cancel := context.WithCancelCause(ctx)
	s := &Subscription{
		principal: principal,
		session:   session,
		ctrl:      ctrl,
		refresh:   make(chan struct{}, 1),
		cancel:    cancel,
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s, ctx
}

func (h *Hub) Detach(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
	s.cancel(context.Canceled)
}

// Refresh signals that the controller's screen changed outside a snapshot
// delivery. Pending signals coalesce.
func (s *Subscription) Refresh() <-chan struct{} {
	return s.refresh
}

// EndSession cancels every subscription opened under session and reports how
// many there were.
func (h *Hub) EndSession(session string) int {
	if session == "" {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for s := range h.subs {
		if s.session == session {
			s.cancel(ErrSessionEnded)
			delete(h.subs, s)
			n++
		}
	}
	return n
}

// Switch moves every open view of principal to a new display currency, rate
// table and granularity. An empty granularity keeps the current one.
func (h *Hub) Switch(principal, currency string, table *rates.Table, g aggregate.Granularity) int {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		if s.principal == principal {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		s.ctrl.SetCurrency(currency, table)
		if g != "" {
			s.ctrl.SetGranularity(g, 0)
		}
		select {
		case s.refresh <- struct{}{}:
		default:
		}
	}
	return len(targets)
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
