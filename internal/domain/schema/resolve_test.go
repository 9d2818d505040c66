package schema

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestResolveColumn(t *testing.T) {
	customers := &Table{Name: "Customers", Columns: []Column{{Name: "CustomerID"}, {Name: "FirstName"}}}
	details := &Table{Name: "CustomerPurchaseDetails", Columns: []Column{{Name: "CustomerID"}, {Name: "Quantity"}}}
	tables := []*Table{customers, details}

	tests := []struct {
		name     string
		column   string
		expected string
		err      error
	}{
		{"unprefixed unique", "firstname", "Customers.FirstName", nil},
		{"prefixed", "customerpurchasedetails.customerid", "CustomerPurchaseDetails.CustomerID", nil},
		{"ambiguous", "CustomerID", "", ErrAmbiguousColumn},
		{"missing", "Price", "", ErrColumnNotFound},
		{"missing prefixed", "Customers.Quantity", "", ErrColumnNotFound},
		{"foreign table", "Products.Price", "", ErrTableNotInQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QualifyColumn(tables, tt.column)
			if tt.err != nil {
				assert.Assert(t, errors.Is(err, tt.err), "got %v", err)
				return
			}
			assert.NilError(t, err)
			assert.Equal(t, got, tt.expected)
		})
	}
}
