package gofpdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fieldquote/quotesync/internal/domain/quote"
	"fieldquote/quotesync/internal/domain/workflow"
)

type Generator struct {
	Company string
	Now     func() time.Time
}

func New(company string) *Generator {
	return &Generator{Company: company, Now: time.Now}
}

func (g *Generator) Generate(q quote.Detail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Quote "+q.ID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Service quote"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("No. %s, %s", q.ID, q.CreatedAt.Format("02.01.2006"))))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr("Status: "+workflow.Label(q.Status)))
	pdf.Ln(6)

	if q.ClientName != "" {
		pdf.Cell(0, 6, tr("Client: "+q.ClientName))
		pdf.Ln(6)
	}
	if q.ClientAddress != "" {
		pdf.Cell(0, 6, tr("Address: "+trim(q.ClientAddress, 90)))
		pdf.Ln(6)
	}
	if q.ScheduledDate != nil {
		pdf.Cell(0, 6, tr("Scheduled: "+q.ScheduledDate.Format("02.01.2006")))
		pdf.Ln(6)
	}
	if q.Pending {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Cell(0, 5, tr("Not yet synchronized"))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(110, 7, tr("Description"))
	pdf.Cell(20, 7, tr("Qty"))
	pdf.Cell(30, 7, tr("Unit price"))
	pdf.Cell(30, 7, tr("Amount"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for _, it := range q.Items {
		pdf.Cell(110, 6, tr(trim(it.Description, 60)))
		pdf.Cell(20, 6, it.Quantity.String())
		pdf.Cell(30, 6, it.UnitPrice.StringFixed(2))
		pdf.Cell(30, 6, it.LineTotal().StringFixed(2))
		pdf.Ln(6)
	}

	totals := quote.ComputeTotals(q.Items, q.DiscountPercent, q.TaxRate)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
	if !q.DiscountPercent.IsZero() {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Discount %s%%: -%s", q.DiscountPercent.String(), totals.DiscountAmount.StringFixed(2))))
		pdf.Ln(6)
	}
	if !q.TaxRate.IsZero() {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Tax %s%%: %s", q.TaxRate.String(), totals.TaxAmount.StringFixed(2))))
		pdf.Ln(6)
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, tr("Total: "+q.Total.StringFixed(2)))
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 9)
	if g.Company != "" {
		pdf.Cell(0, 5, tr(g.Company))
		pdf.Ln(5)
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	pdf.Cell(0, 5, "Generated: "+now().Format(time.RFC3339))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("quote pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
