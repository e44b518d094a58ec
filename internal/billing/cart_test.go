package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestAddToCartIgnoresMalformedRefs(t *testing.T) {
	id := uuid.NewString()
	u := User{}
	added := u.AddToCart(id, "", "not-an-id", "  ")
	require.Equal(t, 1, added)
	require.Equal(t, []string{id}, u.Cart)
}

func TestAddToCartAllowsDuplicates(t *testing.T) {
	id := uuid.NewString()
	u := User{}
	u.AddToCart(id)
	u.AddToCart(id)
	require.Equal(t, []string{id, id}, u.Cart)
}

func TestRemoveFromCartPullsEveryOccurrence(t *testing.T) {
	keep := uuid.NewString()
	drop := uuid.NewString()
	u := User{Cart: []string{drop, keep, drop}}
	original := u.Cart
	require.Equal(t, 2, u.RemoveFromCart(drop))
	require.Equal(t, []string{keep}, u.Cart)
	require.Equal(t, 0, u.RemoveFromCart(drop))
	require.Equal(t, 0, u.RemoveFromCart("garbage"))
	require.Equal(t, []string{drop, keep, drop}, original)
}

func TestClearCartIsIdempotent(t *testing.T) {
	u := User{Cart: []string{uuid.NewString()}}
	require.True(t, u.ClearCart())
	require.Empty(t, u.Cart)
	require.False(t, u.ClearCart())
	require.NotNil(t, u.Cart)
	require.Empty(t, u.Cart)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Service ")
	require.NoError(t, err)
	require.Equal(t, KindService, k)
	_, err = ParseKind("bundle")
	require.ErrorIs(t, err, ErrValidation)
}

func TestItemValidate(t *testing.T) {
	require.NoError(t, Item{Kind: KindProduct, Name: "Desk", Price: dec("0")}.Validate())
	require.ErrorIs(t, Item{Kind: KindProduct, Name: "Desk", Price: dec("-1")}.Validate(), ErrValidation)
	require.ErrorIs(t, Item{Kind: KindProduct, Price: dec("1")}.Validate(), ErrValidation)
	require.ErrorIs(t, Item{Kind: "x", Name: "Desk", Price: dec("1")}.Validate(), ErrValidation)
}
