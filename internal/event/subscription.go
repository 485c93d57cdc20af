package event

import "sync/atomic"

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is registered in its tree.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStateCancelled means the subscription has been removed.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// subscription is one registered callback. Subscriptions are compared by
// pointer identity.
type subscription struct {
	id       string
	path     string
	callback Callback
	receiver any
	state    atomic.Int32
}

// newSubscription creates an active subscription.
func newSubscription(id, path string, cb Callback, receiver any) *subscription {
	s := &subscription{
		id:       id,
		path:     path,
		callback: cb,
		receiver: receiver,
	}
	s.state.Store(int32(SubscriptionStateActive))
	return s
}

func (s *subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

func (s *subscription) cancel() {
	s.state.Store(int32(SubscriptionStateCancelled))
}

// Handle identifies one registration. It is returned by Subscribe and
// consumed by Unsubscribe.
//
// A Handle is only meaningful to the Instance that created it; any other
// Instance treats it as an unknown subscription. The zero Handle refers to
// nothing and is accepted by Unsubscribe as a no-op.
type Handle struct {
	path string
	sub  *subscription
}

// Path returns the namespace path the subscription was registered at,
// joined with the instance separator.
func (h Handle) Path() string {
	return h.path
}

// ID returns the unique subscription identifier, or "" for the zero Handle.
func (h Handle) ID() string {
	if h.sub == nil {
		return ""
	}
	return h.sub.id
}

// IsZero returns true if the handle refers to no subscription.
func (h Handle) IsZero() bool {
	return h.sub == nil
}

// State returns the state of the referenced subscription.
// The zero Handle reports SubscriptionStateCancelled.
func (h Handle) State() SubscriptionState {
	if h.sub == nil {
		return SubscriptionStateCancelled
	}
	return h.sub.State()
}

// Active returns true while the subscription is registered.
func (h Handle) Active() bool {
	return h.State() == SubscriptionStateActive
}

// String returns "path#id".
func (h Handle) String() string {
	if h.sub == nil {
		return "<none>"
	}
	return h.path + "#" + h.sub.id
}
