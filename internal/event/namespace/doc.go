// Package namespace provides the hierarchical namespace tree used by the event bus.
//
// # Path Format
//
// Namespace paths are strings of segments joined by a separator chosen per
// instance ("/" by default):
//
//	hello/world
//	buffer/content/inserted
//	fs/src/main.go
//
// Every segment must be non-empty. The segment "*" is reserved as a wildcard.
//
// # Tree
//
// A Tree is a trie keyed by segment. Each Node owns an ordered list of values
// (subscriptions, in the event package) and a map of child nodes. Nodes are
// created on demand and are never pruned: removing the last value from a node
// leaves the node in place.
//
//	t := namespace.NewTree[*sub]()
//	t.Append([]string{"hello", "world"}, s)
//	if n, ok := t.Lookup([]string{"hello", "world"}); ok {
//	    for _, v := range t.Snapshot(n) {
//	        // v is a copy-safe view of the node's values
//	    }
//	}
package namespace
