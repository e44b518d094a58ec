package billing

import "github.com/shopspring/decimal"

// LineCharge is the tax breakdown for one cart line.
type LineCharge struct {
	ItemID string          `json:"itemId"`
	Kind   Kind            `json:"kind"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Tax    decimal.Decimal `json:"tax"`
	Total  decimal.Decimal `json:"total"`
}

// Bill is the tax-inclusive preview of a cart.
type Bill struct {
	TotalBill decimal.Decimal `json:"totalBill"`
	Items     []LineCharge    `json:"itemsWithTax"`
}

// ComputeBill prices every item in cart order. An empty cart yields a zero
// bill with no lines.
func ComputeBill(items []Item) Bill {
	bill := Bill{TotalBill: decimal.Zero, Items: make([]LineCharge, 0, len(items))}
	for _, it := range items {
		tax := ComputeTax(it.Kind, it.Price)
		line := LineCharge{
			ItemID: it.ID,
			Kind:   it.Kind,
			Name:   it.Name,
			Price:  it.Price,
			Tax:    tax,
			Total:  it.Price.Add(tax),
		}
		bill.Items = append(bill.Items, line)
		bill.TotalBill = bill.TotalBill.Add(line.Total)
	}
	return bill
}

// OrderTotal sums raw item prices. Orders persist this tax-exclusive amount,
// which intentionally differs from Bill.TotalBill.
func OrderTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return total
}
