package services

import (
	"bytes"
	"context"
	"fmt"

	"krishi-backend/internal/repositories"
	"krishi-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReceiptService renders purchase receipts as PDF for download and
// over-the-counter printing. PDFs use the English field names only;
// gofpdf's core fonts cannot render Devanagari.
type ReceiptService struct {
	Purchases *repositories.PurchaseRepository
}

func NewReceiptService(purchases *repositories.PurchaseRepository) *ReceiptService {
	return &ReceiptService{Purchases: purchases}
}

// GeneratePurchaseReceipt renders the receipt for one purchase
func (s *ReceiptService) GeneratePurchaseReceipt(ctx context.Context, purchaseID int) ([]byte, error) {
	p, err := s.Purchases.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Mithlesh Krishi Kendra Nawanagar", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Purchase Receipt", "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Customer Info Box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer Information", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Name: %s", p.Name), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Phone: %s", p.PhoneNumber), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Village: %s", p.Village), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("SN: %s", p.SN), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(190, 7, fmt.Sprintf("Purchase Date: %s", p.PurchaseDate.Format("02-Jan-2006")), "LRB", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Line items
	if len(p.Items) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Items", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(90, 7, "Product", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, "Qty", "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 7, "Price (Rs)", "1", 0, "C", true, 0, "")
		pdf.CellFormat(40, 7, "Amount (Rs)", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, item := range p.Items {
			name := item.ProductName
			if len(name) > 45 {
				name = name[:42] + "..."
			}
			pdf.CellFormat(90, 6, name, "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", item.PriceAtPurchase), "1", 0, "R", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", float64(item.Quantity)*item.PriceAtPurchase), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(5)
	}

	// Payment Summary
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Payment Summary", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Total Amount", "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Rs %.2f", p.TotalAmount), "RB", 1, "R", false, 0, "")
	pdf.CellFormat(95, 7, "Deposit Paid", "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Rs %.2f", p.DepositAmount), "RB", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(95, 7, "Remaining Amount", "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Rs %.2f", p.RemainingAmount), "RB", 1, "R", false, 0, "")
	pdf.CellFormat(95, 7, "Status", "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, p.PaymentStatus, "RB", 1, "R", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(190, 5, "This is a computer generated receipt.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
