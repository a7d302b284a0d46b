package orders

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCanceled, true},
		{StatusPaid, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCanceled, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCanceled, StatusPending, false},
		{StatusCanceled, StatusPaid, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTerminalStatesHaveNoTransitions(t *testing.T) {
	for _, terminal := range []Status{StatusDelivered, StatusCanceled} {
		if allowed := AllowedTransitions(terminal); len(allowed) != 0 {
			t.Errorf("expected no transitions out of %s, got %v", terminal, allowed)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, ok := ParseStatus("paid"); !ok {
		t.Error("paid should parse")
	}
	if _, ok := ParseStatus("PAID"); ok {
		t.Error("statuses are lowercase only")
	}
	if _, ok := ParseStatus("refunded"); ok {
		t.Error("unknown status should not parse")
	}
}
