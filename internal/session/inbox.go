package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/garyellow/companion-nlu-go/internal/course"
)

// Inbox keeps the latest unanswered ambiguity event per user.
type Inbox struct {
	pending *expirable.LRU[string, course.AmbiguityEvent]
}

// NewInbox creates an Inbox holding at most size users' events for ttl.
func NewInbox(size int, ttl time.Duration) *Inbox {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Inbox{pending: expirable.NewLRU[string, course.AmbiguityEvent](size, nil, ttl)}
}

// Run drains events until ctx is done or the channel is closed.
func (i *Inbox) Run(ctx context.Context, events <-chan course.AmbiguityEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			i.Put(ev)
			slog.DebugContext(ctx, "Ambiguity event queued",
				"owner", ev.Owner,
				"roster_size", len(ev.Roster))
		}
	}
}

// Put stores ev as its owner's pending event, replacing an older one.
func (i *Inbox) Put(ev course.AmbiguityEvent) {
	i.pending.Add(ev.Owner, ev)
}

// Take removes and returns a user's pending event.
func (i *Inbox) Take(owner string) (course.AmbiguityEvent, bool) {
	ev, ok := i.pending.Get(owner)
	if ok {
		i.pending.Remove(owner)
	}
	return ev, ok
}
