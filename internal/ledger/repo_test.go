package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/platehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/platehub-backend/pkg/enums"
)

func TestRepository_CreateAndListByOrder(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	ctx := context.Background()
	orderID := uuid.New()
	vendorID := uuid.New()
	actor := uuid.New()

	for _, typ := range []enums.LedgerEventType{enums.LedgerEventTypePaymentCaptured, enums.LedgerEventTypeRefund} {
		_, err := svc.RecordEvent(ctx, nil, RecordLedgerEventInput{
			OrderID:     &orderID,
			VendorID:    vendorID,
			ActorUserID: actor,
			Type:        typ,
			Amount:      decimal.RequireFromString("42.50"),
		})
		require.NoError(t, err)
	}

	events, err := svc.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Amount.Equal(decimal.RequireFromString("42.5")))

	other, err := svc.ListByOrder(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestRepository_PayoutEventsAndCounts(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	ctx := context.Background()
	payoutID := uuid.New()
	orderID := uuid.New()
	vendorID := uuid.New()

	_, err = svc.RecordEvent(ctx, nil, RecordLedgerEventInput{
		PayoutID:    &payoutID,
		VendorID:    vendorID,
		ActorUserID: uuid.New(),
		Type:        enums.LedgerEventTypeVendorPayout,
		Amount:      decimal.RequireFromString("170.00"),
	})
	require.NoError(t, err)

	events, err := svc.ListByPayout(ctx, payoutID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Nil(t, events[0].OrderID)
	require.Equal(t, enums.LedgerEventTypeVendorPayout, events[0].Type)

	has, err := svc.HasEvent(ctx, orderID, enums.LedgerEventTypePaymentCaptured)
	require.NoError(t, err)
	require.False(t, has)

	_, err = svc.RecordEvent(ctx, nil, RecordLedgerEventInput{
		OrderID:     &orderID,
		VendorID:    vendorID,
		ActorUserID: uuid.New(),
		Type:        enums.LedgerEventTypePaymentCaptured,
		Amount:      decimal.RequireFromString("200.00"),
	})
	require.NoError(t, err)

	has, err = svc.HasEvent(ctx, orderID, enums.LedgerEventTypePaymentCaptured)
	require.NoError(t, err)
	require.True(t, has)
}
