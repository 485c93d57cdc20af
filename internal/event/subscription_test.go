package event

import "testing"

func TestSubscriptionState_String(t *testing.T) {
	tests := []struct {
		state SubscriptionState
		want  string
	}{
		{SubscriptionStateActive, "active"},
		{SubscriptionStateCancelled, "cancelled"},
		{SubscriptionState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SubscriptionState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestHandle_Zero(t *testing.T) {
	var h Handle

	if !h.IsZero() {
		t.Error("zero handle should report IsZero")
	}
	if h.ID() != "" {
		t.Errorf("expected empty ID, got %q", h.ID())
	}
	if h.Path() != "" {
		t.Errorf("expected empty path, got %q", h.Path())
	}
	if h.Active() {
		t.Error("zero handle should not be active")
	}
	if h.State() != SubscriptionStateCancelled {
		t.Errorf("expected cancelled, got %s", h.State())
	}
}

func TestSubscription_Cancel(t *testing.T) {
	sub := newSubscription("sub-1", "a/b", func(any, ...any) {}, nil)
	h := Handle{path: sub.path, sub: sub}

	if !h.Active() {
		t.Fatal("new subscription should be active")
	}

	sub.cancel()

	if h.Active() {
		t.Error("cancelled subscription should not be active")
	}
	if h.String() != "a/b#sub-1" {
		t.Errorf("unexpected handle string: %s", h.String())
	}
}
