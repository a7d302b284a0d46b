package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// validNext is the authoritative transition table. Anything not listed here
// is rejected.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCanceled: true},
	StatusPaid:      {StatusShipped: true, StatusCanceled: true},
	StatusShipped:   {StatusDelivered: true},
	StatusDelivered: {},
	StatusCanceled:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func AllowedTransitions(from Status) []Status {
	var out []Status
	for _, s := range []Status{StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCanceled} {
		if validNext[from][s] {
			out = append(out, s)
		}
	}
	return out
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCanceled:
		return Status(s), true
	}
	return "", false
}
