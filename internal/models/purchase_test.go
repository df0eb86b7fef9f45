package models

import "testing"

func TestRecomputeFromItems(t *testing.T) {
	p := &Purchase{
		Items: []PurchaseItem{
			{Quantity: 2, PriceAtPurchase: 250},
			{Quantity: 1, PriceAtPurchase: 500},
		},
		DepositAmount: 300,
	}
	p.Recompute()

	if p.TotalAmount != 1000 {
		t.Errorf("TotalAmount = %v, want 1000", p.TotalAmount)
	}
	if p.RemainingAmount != 700 {
		t.Errorf("RemainingAmount = %v, want 700", p.RemainingAmount)
	}
	if p.PaymentStatus != PaymentPending {
		t.Errorf("PaymentStatus = %s, want pending", p.PaymentStatus)
	}
}

func TestRecomputeManualTotalWinsOverItems(t *testing.T) {
	manual := 1500.0
	p := &Purchase{
		ManualTotalAmount: &manual,
		Items: []PurchaseItem{
			{Quantity: 4, PriceAtPurchase: 100},
		},
	}
	p.Recompute()

	if p.TotalAmount != 1500 {
		t.Errorf("TotalAmount = %v, want manual total 1500", p.TotalAmount)
	}
	if p.RemainingAmount != 1500 {
		t.Errorf("RemainingAmount = %v, want 1500", p.RemainingAmount)
	}
}

func TestRecomputeCompletesAtZeroRemaining(t *testing.T) {
	manual := 1000.0
	p := &Purchase{ManualTotalAmount: &manual, DepositAmount: 0}

	p.Recompute()
	if p.RemainingAmount != 1000 || p.PaymentStatus != PaymentPending {
		t.Fatalf("after create: remaining=%v status=%s, want 1000/pending", p.RemainingAmount, p.PaymentStatus)
	}

	p.DepositAmount += 1000
	p.Recompute()
	if p.RemainingAmount != 0 {
		t.Errorf("RemainingAmount = %v, want 0", p.RemainingAmount)
	}
	if p.PaymentStatus != PaymentCompleted {
		t.Errorf("PaymentStatus = %s, want completed", p.PaymentStatus)
	}
}

func TestRecomputeInvariantHolds(t *testing.T) {
	cases := []struct {
		total   float64
		deposit float64
	}{
		{0, 0},
		{100, 0},
		{100, 50},
		{100, 100},
		{99.5, 33.25},
	}

	for _, tc := range cases {
		manual := tc.total
		p := &Purchase{ManualTotalAmount: &manual, DepositAmount: tc.deposit}
		p.Recompute()

		if p.RemainingAmount != p.TotalAmount-p.DepositAmount {
			t.Errorf("total=%v deposit=%v: remaining=%v breaks invariant", tc.total, tc.deposit, p.RemainingAmount)
		}
		wantCompleted := p.RemainingAmount <= 0
		if (p.PaymentStatus == PaymentCompleted) != wantCompleted {
			t.Errorf("total=%v deposit=%v: status=%s inconsistent with remaining=%v", tc.total, tc.deposit, p.PaymentStatus, p.RemainingAmount)
		}
	}
}
