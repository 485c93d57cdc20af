package event

import (
	"errors"

	"github.com/google/uuid"

	"github.com/dshills/nsbus/internal/event/namespace"
)

// Subscribe registers cb at path and returns its handle.
//
// Intermediate namespace levels are created as needed. The receiver bound to
// cb is the Receiver option, else the instance default, else cb itself.
// An invalid path or a nil callback is logged and yields the zero Handle.
func (i *Instance) Subscribe(path string, cb Callback, opts ...SubscribeOption) Handle {
	return i.subscribe(path, cb, nil, opts)
}

// SubscribeMany subscribes every callback to every path.
//
// Handles are returned in (callback x path) order: all paths for cbs[0],
// then all paths for cbs[1], and so on. Failed registrations keep their
// position as zero Handles.
func (i *Instance) SubscribeMany(paths []string, cbs []Callback, opts ...SubscribeOption) []Handle {
	handles := make([]Handle, 0, len(paths)*len(cbs))
	for _, cb := range cbs {
		for _, path := range paths {
			handles = append(handles, i.Subscribe(path, cb, opts...))
		}
	}
	return handles
}

// SubscribeOnce registers cb at path and unsubscribes it after its first
// invocation.
//
// Removal happens after cb returns (or panics). With deferred execution a
// publish that arrives before the first deferred invocation has run can
// schedule cb again, so a once-subscription may fire more than once there.
func (i *Instance) SubscribeOnce(path string, cb Callback, opts ...SubscribeOption) Handle {
	return i.subscribe(path, cb, func(h Handle, cb Callback) Callback {
		return func(self any, args ...any) {
			defer i.Unsubscribe(h)
			cb(self, args...)
		}
	}, opts)
}

// subscribe registers cb. When wrap is set, the registered callback is
// wrap(handle, cb); the receiver is still resolved against cb.
func (i *Instance) subscribe(path string, cb Callback, wrap func(Handle, Callback) Callback, opts []SubscribeOption) Handle {
	if cb == nil {
		i.logError("subscribe: nil callback", "path", path)
		return Handle{}
	}

	segments, err := i.syntax.Split(path)
	if err != nil {
		i.logError("subscribe: invalid namespace path", "path", path, "error", err)
		return Handle{}
	}

	p := subscribeParams{receiver: i.config.Receiver}
	for _, opt := range opts {
		opt(&p)
	}
	receiver := p.receiver
	if receiver == nil {
		receiver = cb
	}

	sub := newSubscription(uuid.NewString(), i.syntax.Join(segments), cb, receiver)
	h := Handle{path: sub.path, sub: sub}
	if wrap != nil {
		sub.callback = wrap(h, cb)
	}

	i.tree.Append(segments, sub)
	return h
}

// Unsubscribe removes the subscription named by h.
//
// It never fails: a handle whose path no longer resolves, whose subscription
// is already gone, or that belongs to another Instance is logged and ignored.
func (i *Instance) Unsubscribe(h Handle) {
	if h.IsZero() {
		i.logInfo("unsubscribe: empty handle")
		return
	}

	segments, err := i.syntax.Split(h.path)
	if err != nil {
		i.logError("unsubscribe: invalid namespace path", "path", h.path, "error", err)
		return
	}

	err = i.tree.Remove(segments, h.sub)
	switch {
	case err == nil:
		h.sub.cancel()
	case errors.Is(err, namespace.ErrPathNotFound):
		i.logError("unsubscribe: no such namespace", "path", h.path)
	case errors.Is(err, namespace.ErrNotSubscribed):
		i.logInfo("unsubscribe: no such subscription", "path", h.path, "subscription", h.sub.id)
	}
}

// UnsubscribeMany unsubscribes every handle in order.
func (i *Instance) UnsubscribeMany(handles []Handle) {
	for _, h := range handles {
		i.Unsubscribe(h)
	}
}
