package order

import "strings"

// Status is the lifecycle state of an order, assigned by the orders API.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusPaid         Status = "PAID"
	StatusInProduction Status = "IN_PRODUCTION"
	StatusShipped      Status = "SHIPPED"
	StatusDelivered    Status = "DELIVERED"
	StatusCancelled    Status = "CANCELLED"
	StatusRefunded     Status = "REFUNDED"
)

var statusLabels = map[Status]string{
	StatusPending:      "En attente de paiement",
	StatusPaid:         "Payée",
	StatusInProduction: "En production",
	StatusShipped:      "Expédiée",
	StatusDelivered:    "Livrée",
	StatusCancelled:    "Annulée",
	StatusRefunded:     "Remboursée",
}

// forward lists the statuses reachable from each non-terminal status.
var forward = map[Status][]Status{
	StatusPending:      {StatusPaid, StatusCancelled},
	StatusPaid:         {StatusInProduction, StatusCancelled, StatusRefunded},
	StatusInProduction: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:      {StatusDelivered, StatusRefunded},
}

// ParseStatus normalises a status received from the orders API. Unknown
// values are kept verbatim (uppercased).
func ParseStatus(s string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(s)))
}

// Known reports whether s is part of the documented lifecycle.
func (s Status) Known() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, st := range forward[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Label returns the French display label, or the raw status when unknown.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}
