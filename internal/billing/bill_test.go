package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeBillEmptyCart(t *testing.T) {
	bill := ComputeBill(nil)
	require.True(t, bill.TotalBill.IsZero())
	require.NotNil(t, bill.Items)
	require.Empty(t, bill.Items)
}

func TestComputeBillSingleProduct(t *testing.T) {
	bill := ComputeBill([]Item{{ID: "p1", Kind: KindProduct, Name: "Laptop Stand", Price: dec("2000")}})
	require.Len(t, bill.Items, 1)
	line := bill.Items[0]
	require.Equal(t, "Laptop Stand", line.Name)
	require.True(t, line.Tax.Equal(dec("240")), "tax %s", line.Tax)
	require.True(t, line.Total.Equal(dec("2240")), "total %s", line.Total)
	require.True(t, bill.TotalBill.Equal(dec("2240")), "bill %s", bill.TotalBill)
}

func TestComputeBillMixedCartKeepsOrder(t *testing.T) {
	items := []Item{
		{ID: "s1", Kind: KindService, Name: "Installation", Price: dec("500")},
		{ID: "p1", Kind: KindProduct, Name: "Monitor", Price: dec("6000")},
		{ID: "s1", Kind: KindService, Name: "Installation", Price: dec("500")},
	}
	bill := ComputeBill(items)
	require.Len(t, bill.Items, 3)
	require.Equal(t, []string{"s1", "p1", "s1"}, []string{bill.Items[0].ItemID, bill.Items[1].ItemID, bill.Items[2].ItemID})
	// 600 + (6000 + 1080) + 600
	require.True(t, bill.TotalBill.Equal(dec("8280")), "bill %s", bill.TotalBill)
}

func TestOrderTotalExcludesTax(t *testing.T) {
	items := []Item{
		{ID: "a", Kind: KindProduct, Price: dec("100")},
		{ID: "b", Kind: KindService, Price: dec("200")},
	}
	require.True(t, OrderTotal(items).Equal(dec("300")))
	require.True(t, OrderTotal(nil).IsZero())
	require.False(t, ComputeBill(items).TotalBill.Equal(OrderTotal(items)))
}
