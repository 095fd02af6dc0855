package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	tests := []struct {
		in   string
		want OrderStatus
	}{
		{"Pending", OrderStatusPending},
		{"pending", OrderStatusPending},
		{" PROCESSING ", OrderStatusProcessing},
		{"Shipped", OrderStatusShipped},
		{"delivered", OrderStatusDelivered},
		{"Cancelled", OrderStatusCancelled},
		{"Canceled", OrderStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderStatus(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestParseOrderStatus_Unknown(t *testing.T) {
	for _, in := range []string{"", "Returned", "pend"} {
		_, err := ParseOrderStatus(in)
		assert.ErrorIs(t, err, ErrInvalidStatus, in)
	}
	assert.False(t, OrderStatus("Canceled").IsValid())
}

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("10.00")},
		{Quantity: 2, UnitPrice: decimal.RequireFromString("0.10")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("699.99")},
	}

	assert.True(t, decimal.RequireFromString("730.19").Equal(SumItems(items)))
	assert.True(t, decimal.Zero.Equal(SumItems(nil)))
}

func TestItemError(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("place order: %w", InsufficientStock(id))

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrProductNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), id.String())

	var itemErr *ItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Equal(t, id, itemErr.ProductID)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrOrderNotFound))
	assert.Equal(t, KindNotFound, KindOf(ProductNotFound(uuid.New())))
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleCustomer.IsValid())
	assert.False(t, Role("admin").IsValid())
}
