package events_test

import (
	"testing"

	"github.com/Builder-Lawyers/execution-service/internal/application/events"
	"github.com/stretchr/testify/require"
)

func TestParseEventKind(t *testing.T) {
	require.Equal(t, events.KindPaymentConfirmed, events.ParseEventKind("PaymentConfirmed"))
	require.Equal(t, events.KindOsCanceled, events.ParseEventKind("OsCanceled"))
	require.Equal(t, events.KindUnknown, events.ParseEventKind("QuoteApproved"))
	require.Equal(t, events.KindUnknown, events.ParseEventKind(""))
	require.Equal(t, events.KindUnknown, events.ParseEventKind("paymentconfirmed"))
}

func TestEventKindStringRoundTrips(t *testing.T) {
	for _, kind := range []events.EventKind{events.KindPaymentConfirmed, events.KindOsCanceled} {
		require.Equal(t, kind, events.ParseEventKind(kind.String()))
	}
	require.Equal(t, "Unknown", events.KindUnknown.String())
}
