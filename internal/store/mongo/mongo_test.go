package mongo

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/noah-isme/billing-service/internal/billing"
)

func TestTranslateTransientTransactionError(t *testing.T) {
	err := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	require.ErrorIs(t, translate(err), billing.ErrConflict)

	plain := errors.New("socket closed")
	require.Equal(t, plain, translate(plain))
	require.ErrorIs(t, translate(billing.UserNotFound("u1")), billing.ErrNotFound)
}

func TestItemDocDecodesDecimal128(t *testing.T) {
	price, err := primitive.ParseDecimal128("1000.01")
	require.NoError(t, err)
	it, err := itemDoc{ID: "p1", Name: "Desk", Price: price}.item(billing.KindProduct)
	require.NoError(t, err)
	require.True(t, it.Price.Equal(decimal.RequireFromString("1000.01")))
	require.Equal(t, billing.KindProduct, it.Kind)
}

func TestKindCollection(t *testing.T) {
	coll, err := kindCollection(billing.KindService)
	require.NoError(t, err)
	require.Equal(t, collServices, coll)
	_, err = kindCollection("bundle")
	require.ErrorIs(t, err, billing.ErrValidation)
}

func TestUserDocDefaultsCart(t *testing.T) {
	u := userDoc{ID: "u1", Name: "Dee", Email: "dee@example.com"}.user()
	require.NotNil(t, u.Cart)
	require.Empty(t, u.Cart)
}
