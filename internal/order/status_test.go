package order

import "testing"

func TestStatusTransitions(t *testing.T) {
	tests := map[string]struct {
		from Status
		to   Status
		want bool
	}{
		"pending to confirmed":      {StatusPending, StatusConfirmed, true},
		"confirmed to processing":   {StatusConfirmed, StatusProcessing, true},
		"processing to shipped":     {StatusProcessing, StatusShipped, true},
		"shipped to delivered":      {StatusShipped, StatusDelivered, true},
		"pending to shipped":        {StatusPending, StatusShipped, false},
		"confirmed to shipped":      {StatusConfirmed, StatusShipped, false},
		"shipped to processing":     {StatusShipped, StatusProcessing, false},
		"pending to cancelled":      {StatusPending, StatusCancelled, true},
		"confirmed to cancelled":    {StatusConfirmed, StatusCancelled, true},
		"processing to cancelled":   {StatusProcessing, StatusCancelled, true},
		"shipped to cancelled":      {StatusShipped, StatusCancelled, false},
		"delivered to cancelled":    {StatusDelivered, StatusCancelled, false},
		"cancelled to confirmed":    {StatusCancelled, StatusConfirmed, false},
		"delivered stays delivered": {StatusDelivered, StatusDelivered, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	if !StatusPending.Cancellable() || !StatusConfirmed.Cancellable() || !StatusProcessing.Cancellable() {
		t.Fatal("pre-shipment statuses must be cancellable")
	}
	if StatusShipped.Cancellable() || StatusDelivered.Cancellable() || StatusCancelled.Cancellable() {
		t.Fatal("shipped and terminal statuses must not be cancellable")
	}
	if !StatusDelivered.Terminal() || !StatusCancelled.Terminal() {
		t.Fatal("delivered and cancelled are terminal")
	}
	if StatusShipped.Terminal() {
		t.Fatal("shipped is not terminal")
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("processing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("unknown"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
