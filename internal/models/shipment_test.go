package models

import "testing"

func TestShipmentTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{ShipmentPending, ShipmentPreparing, true},
		{ShipmentPreparing, ShipmentReady, true},
		{ShipmentReady, ShipmentShipped, true},
		{ShipmentShipped, ShipmentDelivered, true},

		// one step at a time, forward only
		{ShipmentPending, ShipmentReady, false},
		{ShipmentPending, ShipmentShipped, false},
		{ShipmentReady, ShipmentDelivered, false},
		{ShipmentShipped, ShipmentReady, false},
		{ShipmentDelivered, ShipmentShipped, false},
		{ShipmentPreparing, ShipmentPending, false},

		// cancel allowed only before the truck leaves
		{ShipmentPending, ShipmentCancelled, true},
		{ShipmentPreparing, ShipmentCancelled, true},
		{ShipmentReady, ShipmentCancelled, true},
		{ShipmentShipped, ShipmentCancelled, false},
		{ShipmentDelivered, ShipmentCancelled, false},
		{ShipmentCancelled, ShipmentCancelled, false},

		// cancelled is terminal
		{ShipmentCancelled, ShipmentPreparing, false},
		{ShipmentCancelled, ShipmentPending, false},
	}
	for _, c := range cases {
		if got := ShipmentTransitionAllowed(c.from, c.to); got != c.want {
			t.Errorf("ShipmentTransitionAllowed(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
