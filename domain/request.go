// Package domain defines the typed records flowing through the quote
// pipeline. Records are immutable once constructed; derived values
// (scores, allocations, decisions) are produced as new values rather than
// mutated in place.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// StructuredRequest is a customer request after extraction into typed fields.
// The extraction collaborator owns construction; the pipeline rejects any
// request whose Validate fails, so an invalid request never enters a stage.
type StructuredRequest struct {
	ProductType    string            `json:"product_type"`
	Quantity       int               `json:"quantity"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Region         string            `json:"region"`
	Deadline       time.Time         `json:"deadline"`

	// MarketUnitPrice is the reference list price per unit supplied by the
	// extraction collaborator. Margins and price competitiveness are computed
	// against it.
	MarketUnitPrice float64 `json:"market_unit_price"`

	// CreatedAt anchors deadline-proximity calculations so that scoring a
	// fixed snapshot is reproducible.
	CreatedAt time.Time `json:"created_at"`
}

// Window returns the time available between request creation and deadline.
func (r StructuredRequest) Window() time.Duration {
	return r.Deadline.Sub(r.CreatedAt)
}

// Validate reports the required fields missing from the request. A non-nil
// result is always a *MissingFieldsError.
func (r StructuredRequest) Validate() error {
	var missing []string

	if r.ProductType == "" {
		missing = append(missing, "product_type")
	}
	if r.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if r.Deadline.IsZero() {
		missing = append(missing, "deadline")
	}
	if r.CreatedAt.IsZero() {
		missing = append(missing, "created_at")
	}
	if r.MarketUnitPrice <= 0 {
		missing = append(missing, "market_unit_price")
	}

	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// MissingFieldsError signals that extraction produced an incomplete request.
// The caller is expected to run a clarification round trip with the customer
// and resubmit; the pipeline treats it as a rejection, not a stage failure.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("request missing required fields: %s", strings.Join(e.Fields, ", "))
}
