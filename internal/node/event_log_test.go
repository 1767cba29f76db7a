package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alphabill-org/assetswap/internal/eventbus"
	"github.com/alphabill-org/assetswap/internal/swap"
	test "github.com/alphabill-org/assetswap/internal/testutils"
	"github.com/alphabill-org/assetswap/internal/types"
)

func TestEventLog_CollectsNodeEvents(t *testing.T) {
	tn := newTestNode(t)
	eventLog, err := NewEventLog(tn.EventBus(), 10)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eventLog.Run(ctx) }()

	addr := tn.deploy(t)
	tn.mustSubmit(t, tn.holderB, PayloadTypeAddOffer, addr, &AddOfferAttributes{TargetAsset: targetAsset})
	tn.mustSubmit(t, tn.holderA, PayloadTypeDeclineOffer, addr, &OfferAttributes{TargetAsset: targetAsset})

	require.Eventually(t, func() bool { return len(eventLog.Since(0)) == 2 }, test.WaitDuration, test.WaitTick)
	events := eventLog.Since(0)
	require.Equal(t, swap.EventNewOffer, events[0].Event.Type)
	require.Equal(t, swap.EventOfferDeclined, events[1].Event.Type)
	require.Equal(t, addr, events[1].Event.Swap)
	require.Len(t, eventLog.Since(1), 1)
	require.Empty(t, eventLog.Since(2))

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestEventLog_KeepsLatestEvents(t *testing.T) {
	bus := eventbus.New()
	eventLog, err := NewEventLog(bus, 2)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- eventLog.Run(context.Background()) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Submit(TopicAll, &swap.Event{Type: swap.EventNewOffer, Proposer: types.Address{byte(i)}}))
	}
	require.Eventually(t, func() bool {
		events := eventLog.Since(0)
		return len(events) == 2 && events[1].Seq == 3
	}, test.WaitDuration, test.WaitTick)
	require.EqualValues(t, 2, eventLog.Since(0)[0].Seq)

	// closing the bus stops the log
	require.NoError(t, bus.Close())
	require.NoError(t, <-done)

	_, err = NewEventLog(bus, 1)
	require.ErrorIs(t, err, eventbus.ErrEventBusClosing)
}
