package event

import (
	"github.com/dshills/nsbus/internal/event/namespace"
)

// Publish triggers every subscription matching path with args.
//
// Matching rules:
//   - A subscription on the exact path fires.
//   - A "*" segment in a subscribed path matches any one published segment.
//   - A "*" segment in a published path fires the direct subscriptions of
//     every child of the level it appears at, then ends the walk.
//   - With Recurrent, every level on the way to the leaf fires as well,
//     limited to the last Depth levels when a depth is set.
//
// Publish never fails: invalid paths and unknown segments are logged when
// logging is enabled and otherwise ignored. With Async, callbacks are handed
// to the scheduler and Publish returns without waiting for them.
func (i *Instance) Publish(path string, args []any, opts ...PublishOption) {
	p := publishParams{
		recurrent: i.config.Recurrent,
		depth:     i.config.Depth,
		async:     i.config.Async,
	}
	for _, opt := range opts {
		opt(&p)
	}

	segments, err := i.syntax.Split(path)
	if err != nil {
		i.logError("publish: invalid namespace path", "path", path, "error", err)
		return
	}

	i.published.Add(1)

	w := &walker{
		inst:   i,
		path:   path,
		args:   args,
		params: p,
	}
	w.walk(i.tree.Root(), segments)
}

// walker carries one publish through the tree.
type walker struct {
	inst   *Instance
	path   string
	args   []any
	params publishParams
}

// walk resolves rest against node.
func (w *walker) walk(node *namespace.Node[*subscription], rest []string) {
	tree := w.inst.tree

	if len(rest) == 0 {
		// Under bubbling the leaf already fired on the way down.
		if !w.params.recurrent {
			w.invoke(node)
		}
		return
	}

	head, tail := rest[0], rest[1:]

	// Publish-side wildcard: one level of fan-out, then stop.
	if namespace.IsWildcard(head) {
		children := tree.Children(node)
		if len(children) == 0 {
			w.miss(head)
			return
		}
		for _, child := range children {
			w.invoke(child.Node)
		}
		return
	}

	// The literal child and the subscribe-side wildcard child are separate
	// branches; both are walked when both exist.
	matched := false
	for _, seg := range [...]string{head, namespace.Wildcard} {
		next, ok := tree.Child(node, seg)
		if !ok {
			continue
		}
		matched = true

		if w.params.bubbles(len(tail)) {
			w.invoke(next)
		}
		w.walk(next, tail)
	}

	if !matched {
		w.miss(head)
	}
}

// invoke fires every subscription present at node when called.
func (w *walker) invoke(node *namespace.Node[*subscription]) {
	// Snapshot first: callbacks may unsubscribe themselves or others.
	for _, sub := range w.inst.tree.Snapshot(node) {
		if w.params.async {
			w.inst.schedule(sub, w.path, w.args)
		} else {
			w.inst.call(sub, w.path, w.args)
		}
	}
}

func (w *walker) miss(segment string) {
	w.inst.misses.Add(1)
	w.inst.logWarn("publish: no subscription for namespace",
		"path", w.path,
		"segment", segment,
	)
}

// call invokes sub synchronously with panic recovery.
func (i *Instance) call(sub *subscription, published string, args []any) {
	i.invoked.Add(1)

	result := i.executor.Execute(func() {
		sub.callback(sub.receiver, args...)
	})
	if !result.Panicked {
		return
	}

	i.panics.Add(1)
	i.panicHandler(&PanicError{
		SubscriptionID: sub.id,
		Path:           sub.path,
		Published:      published,
		Value:          result.PanicValue,
		Stack:          string(result.PanicStack),
	})
}

// schedule defers sub to the scheduler.
func (i *Instance) schedule(sub *subscription, published string, args []any) {
	err := i.scheduler.Schedule(func() {
		i.call(sub, published, args)
	})
	if err != nil {
		i.dropped.Add(1)
		i.logError("publish: scheduler rejected callback",
			"path", published,
			"subscription", sub.id,
			"error", err,
		)
		return
	}
	i.deferred.Add(1)
}
