package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/quoteflow-systems/engine/domain"
)

func validRequest() domain.StructuredRequest {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.StructuredRequest{
		ProductType:     "bolts",
		Quantity:        1000,
		Region:          "eu-west",
		Deadline:        now.Add(14 * 24 * time.Hour),
		MarketUnitPrice: 1.30,
		CreatedAt:       now,
	}
}

func TestStructuredRequest_Validate(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("expected valid request, got: %v", err)
	}
}

func TestStructuredRequest_ValidateMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.StructuredRequest)
		field  string
	}{
		{name: "missing product type", mutate: func(r *domain.StructuredRequest) { r.ProductType = "" }, field: "product_type"},
		{name: "zero quantity", mutate: func(r *domain.StructuredRequest) { r.Quantity = 0 }, field: "quantity"},
		{name: "negative quantity", mutate: func(r *domain.StructuredRequest) { r.Quantity = -5 }, field: "quantity"},
		{name: "missing deadline", mutate: func(r *domain.StructuredRequest) { r.Deadline = time.Time{} }, field: "deadline"},
		{name: "missing market price", mutate: func(r *domain.StructuredRequest) { r.MarketUnitPrice = 0 }, field: "market_unit_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			var missing *domain.MissingFieldsError
			if !errors.As(err, &missing) {
				t.Fatalf("expected *MissingFieldsError, got %T", err)
			}

			found := false
			for _, f := range missing.Fields {
				if f == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected field %q in %v", tt.field, missing.Fields)
			}
		})
	}
}

func TestRawQuote_Value(t *testing.T) {
	q := domain.RawQuote{SupplierID: "sup-1", UnitPrice: 1.05, QuantityOffered: 2000}
	if got := q.Value(1000); got != 1050 {
		t.Errorf("Value(1000) = %v, want 1050", got)
	}
}

func TestRawQuote_Margin(t *testing.T) {
	q := domain.RawQuote{UnitPrice: 1.00}

	got := q.Margin(1.25)
	if got < 0.199 || got > 0.201 {
		t.Errorf("Margin(1.25) = %v, want 0.20", got)
	}

	if q.Margin(0) != 0 {
		t.Errorf("Margin(0) = %v, want 0", q.Margin(0))
	}
}

func TestOptimizedQuote_TotalQuantity(t *testing.T) {
	q := domain.OptimizedQuote{
		Allocations: []domain.Allocation{
			{SupplierID: "a", Quantity: 600},
			{SupplierID: "b", Quantity: 400},
		},
	}
	if got := q.TotalQuantity(); got != 1000 {
		t.Errorf("TotalQuantity() = %d, want 1000", got)
	}
}
