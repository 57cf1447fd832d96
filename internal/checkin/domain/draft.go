package checkin

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLineItem is a priced invoice line as handed to the invoicing
// boundary. UnitPrice is tax-exclusive. Line items are produced only by the
// draft builder and modified only through EditLine.
type InvoiceLineItem struct {
	ChargeableID string          `json:"chargeable_id,omitempty"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Notes        string          `json:"notes,omitempty"`
}

// CalculatedLine is a line item with its derived amounts.
type CalculatedLine struct {
	InvoiceLineItem
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	RateInclusive decimal.Decimal `json:"rate_inclusive"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// DraftTotals aggregates per-line rounded values. Summing rounded lines,
// rather than rounding a running sum, can differ from a single-sum rounding
// by a cent; that is preserved behavior, it keeps per-line errors visible.
type DraftTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"tax_total"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// DraftCalculation is the output of a calculate run. It is consumed by
// approve and replaced wholesale on every recalculation. The signature pins
// the priced inputs the draft was computed from; EditLine changes amounts
// without touching it.
type DraftCalculation struct {
	Signature    string            `json:"signature"`
	CalculatedAt time.Time         `json:"calculated_at"`
	BillingBasis ChargeBasis       `json:"billing_basis"`
	BillingHours decimal.Decimal   `json:"billing_hours"`
	DualTime     decimal.Decimal   `json:"dual_time"`
	SoloTime     decimal.Decimal   `json:"solo_time"`
	Items        []InvoiceLineItem `json:"items"`
	Lines        []CalculatedLine  `json:"lines"`
	Totals       DraftTotals       `json:"totals"`
}

// DraftInput carries the resolved inputs the builder prices from.
type DraftInput struct {
	Basis          ChargeBasis
	Split          SplitResult
	AircraftID     string
	AircraftRate   *ChargeRate
	InstructorID   string
	InstructorRate *ChargeRate
	Instruction    InstructionType
	HasSoloAtEnd   bool
	TaxRate        decimal.Decimal
	Readings       MeterReadings
}

// BuildLineItems assembles the priced line items for a draft. It is pure and
// never fails: if a precondition does not hold (no basis, non-positive
// billing hours) it returns an empty list, and callers surface the specific
// blocking reason themselves.
func BuildLineItems(in DraftInput) []InvoiceLineItem {
	if in.Basis == BasisNone || in.Basis == BasisAirswitch || in.AircraftRate == nil {
		return nil
	}
	if !in.Split.Total.IsPositive() {
		return nil
	}

	items := []InvoiceLineItem{{
		ChargeableID: in.AircraftID,
		Description:  "Aircraft hire",
		Quantity:     in.Split.Total,
		UnitPrice:    in.AircraftRate.RatePerHour,
		TaxRate:      in.TaxRate,
		Notes:        aircraftLineNotes(in),
	}}

	if line, ok := instructorLine(in); ok {
		items = append(items, line)
	}
	return items
}

// instructorLine builds the instructor fee line when one applies. Instructors
// are never paid for solo time, and when a dual+solo split is active an
// instructor whose rate resolves to a different meter than the aircraft's is
// refused for auditability.
func instructorLine(in DraftInput) (InvoiceLineItem, bool) {
	if in.InstructorID == "" || in.InstructorRate == nil {
		return InvoiceLineItem{}, false
	}
	if in.Instruction == InstructionSolo {
		return InvoiceLineItem{}, false
	}
	instructorBasis := ResolveBasis(in.InstructorRate)
	if instructorBasis == BasisNone {
		return InvoiceLineItem{}, false
	}
	splitActive := in.HasSoloAtEnd && in.Instruction.AllowsSoloSplit()
	if splitActive && instructorBasis != in.Basis {
		return InvoiceLineItem{}, false
	}
	if !in.Split.Dual.IsPositive() {
		return InvoiceLineItem{}, false
	}
	return InvoiceLineItem{
		ChargeableID: in.InstructorID,
		Description:  "Instructor fee",
		Quantity:     in.Split.Dual,
		UnitPrice:    in.InstructorRate.RatePerHour,
		TaxRate:      in.TaxRate,
		Notes:        fmt.Sprintf("basis=%s dual=%s", instructorBasis, in.Split.Dual),
	}, true
}

func aircraftLineNotes(in DraftInput) string {
	start, end, soloEnd := in.Readings.ForBasis(in.Basis)
	notes := fmt.Sprintf("basis=%s start=%s end=%s", in.Basis, nullDecimalString(start), nullDecimalString(end))
	if in.HasSoloAtEnd && in.Instruction.AllowsSoloSplit() {
		notes += fmt.Sprintf(" solo_end=%s", nullDecimalString(soloEnd))
	}
	notes += fmt.Sprintf("; dual=%s solo=%s total=%s", in.Split.Dual, in.Split.Solo, in.Split.Total)
	return notes
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

// CalculateLines derives per-line amounts and the aggregate totals.
// Per line: amount = round2(quantity * unit_price),
// tax = round2(amount * tax_rate), inclusive rate = round2(unit_price *
// (1 + tax_rate)), line total = round2(amount + tax). Aggregates sum the
// per-line rounded values.
func CalculateLines(items []InvoiceLineItem) ([]CalculatedLine, DraftTotals) {
	lines := make([]CalculatedLine, 0, len(items))
	var totals DraftTotals
	for _, item := range items {
		amount := Round2(item.Quantity.Mul(item.UnitPrice))
		taxAmount := Round2(amount.Mul(item.TaxRate))
		line := CalculatedLine{
			InvoiceLineItem: item,
			Amount:          amount,
			TaxAmount:       taxAmount,
			RateInclusive:   Round2(item.UnitPrice.Mul(decimal.NewFromInt(1).Add(item.TaxRate))),
			LineTotal:       Round2(amount.Add(taxAmount)),
		}
		lines = append(lines, line)
		totals.Subtotal = totals.Subtotal.Add(line.Amount)
		totals.TaxTotal = totals.TaxTotal.Add(line.TaxAmount)
		totals.TotalAmount = totals.TotalAmount.Add(line.LineTotal)
	}
	return lines, totals
}

// NewDraftCalculation assembles a draft from built items.
func NewDraftCalculation(signature string, calculatedAt time.Time, basis ChargeBasis, split SplitResult, items []InvoiceLineItem) *DraftCalculation {
	lines, totals := CalculateLines(items)
	return &DraftCalculation{
		Signature:    signature,
		CalculatedAt: calculatedAt,
		BillingBasis: basis,
		BillingHours: split.Total,
		DualTime:     split.Dual,
		SoloTime:     split.Solo,
		Items:        items,
		Lines:        lines,
		Totals:       totals,
	}
}

// LinePatch is an operator adjustment to a single draft line.
type LinePatch struct {
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// EditLine returns a new draft with one line patched and all amounts
// recomputed. The governing signature is carried over untouched: a manually
// adjusted draft does not become stale from editing, only upstream priced
// inputs invalidate it.
func (d *DraftCalculation) EditLine(index int, patch LinePatch) (*DraftCalculation, error) {
	if d == nil {
		return nil, ErrNoDraft
	}
	if index < 0 || index >= len(d.Items) {
		return nil, ErrLineIndexOutOfRange
	}

	items := make([]InvoiceLineItem, len(d.Items))
	copy(items, d.Items)
	if patch.Quantity != nil {
		items[index].Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		items[index].UnitPrice = *patch.UnitPrice
	}

	edited := NewDraftCalculation(d.Signature, d.CalculatedAt, d.BillingBasis, SplitResult{Total: d.BillingHours, Dual: d.DualTime, Solo: d.SoloTime}, items)
	return edited, nil
}

// ValidateForApproval checks the draft side of the approval preconditions:
// at least one line, positive quantities, non-negative prices, and a
// positive total.
func (d *DraftCalculation) ValidateForApproval() error {
	if d == nil {
		return ErrNoDraft
	}
	if len(d.Items) == 0 {
		return ErrEmptyDraft
	}
	for _, item := range d.Items {
		if !item.Quantity.IsPositive() || item.UnitPrice.IsNegative() {
			return ErrInvalidLine
		}
	}
	if !d.Totals.TotalAmount.IsPositive() {
		return ErrNonPositiveTotal
	}
	return nil
}
