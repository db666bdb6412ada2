package events

// EventKind is the closed set of inbound event types the consumer knows how to route.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindPaymentConfirmed
	KindOsCanceled
)

func ParseEventKind(eventType string) EventKind {
	switch eventType {
	case PaymentConfirmed{}.GetType():
		return KindPaymentConfirmed
	case OsCanceled{}.GetType():
		return KindOsCanceled
	default:
		return KindUnknown
	}
}

func (k EventKind) String() string {
	switch k {
	case KindPaymentConfirmed:
		return PaymentConfirmed{}.GetType()
	case KindOsCanceled:
		return OsCanceled{}.GetType()
	default:
		return "Unknown"
	}
}
