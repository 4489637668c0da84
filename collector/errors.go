package collector

import (
	"errors"
	"fmt"
)

// ErrNoViableSuppliers is returned when the eligible-supplier set or the
// surviving-quote set is empty. Fatal to the pipeline for the request.
var ErrNoViableSuppliers = errors.New("no viable suppliers")

// ErrSupplierTimeout marks a supplier call that exceeded the configured
// per-call timeout. Recoverable: the supplier is excluded and recorded.
var ErrSupplierTimeout = errors.New("supplier timed out")

// ErrQuoteRejected marks a quote a human reviewer declined during the
// negotiation checkpoint.
var ErrQuoteRejected = errors.New("quote rejected by reviewer")

// SupplierError records a per-supplier failure during collection. Failures
// are contained at this stage: they exclude the supplier from the result set
// without failing the pipeline.
type SupplierError struct {
	SupplierID string
	Err        error
}

func (e *SupplierError) Error() string {
	return fmt.Sprintf("supplier %s: %v", e.SupplierID, e.Err)
}

func (e *SupplierError) Unwrap() error {
	return e.Err
}
