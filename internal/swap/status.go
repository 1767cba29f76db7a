package swap

import "fmt"

// Status of the swap instance. The ordinal values are part of the query interface.
type Status uint8

const (
	StatusOpen Status = iota
	StatusAwaitingPayment
	StatusReady
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusAwaitingPayment:
		return "AWAITING_PAYMENT"
	case StatusReady:
		return "READY"
	case StatusSettled:
		return "SETTLED"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}
