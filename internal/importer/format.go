package importer

import (
	"fmt"
	"strings"
)

// FieldKind identifies what a source column means to the normalizer.
type FieldKind int

const (
	FieldIgnored FieldKind = iota
	FieldDate
	FieldPayee
	FieldAmount
	FieldDirection
	FieldCurrency
	FieldReference
)

// Format describes one source adapter's tabular layout: which header names
// mean what, how dates are written and whether the decimal separator is a
// comma. Header names are matched case-insensitively; columns the format
// does not name are ignored.
type Format struct {
	Name string

	// DateLayout is the Go reference layout for the date column.
	DateLayout string

	// DecimalComma selects "1.234,56" amount notation instead of "1,234.56".
	DecimalComma bool

	// Fields maps lowercased header names to their meaning.
	Fields map[string]FieldKind
}

var formats = map[string]Format{
	"barclays": {
		Name:       "barclays",
		DateLayout: "02/01/2006",
		Fields: map[string]FieldKind{
			"date":   FieldDate,
			"memo":   FieldPayee,
			"amount": FieldAmount,
			"subcategory": FieldIgnored,
		},
	},
	"barclaycard": {
		Name:       "barclaycard",
		DateLayout: "02/01/2006",
		Fields: map[string]FieldKind{
			"date":             FieldDate,
			"merchant":         FieldPayee,
			"amount":           FieldAmount,
			"extended details": FieldReference,
		},
	},
	"revolut": {
		Name:       "revolut",
		DateLayout: "2006-01-02",
		Fields: map[string]FieldKind{
			"completed date": FieldDate,
			"description":    FieldPayee,
			"amount":         FieldAmount,
			"currency":       FieldCurrency,
		},
	},
	"generic": {
		Name:       "generic",
		DateLayout: "2006-01-02",
		Fields: map[string]FieldKind{
			"date":      FieldDate,
			"payee":     FieldPayee,
			"amount":    FieldAmount,
			"direction": FieldDirection,
			"currency":  FieldCurrency,
			"reference": FieldReference,
		},
	},
}

// LookupFormat returns the named source format.
func LookupFormat(name string) (Format, error) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Format{}, fmt.Errorf("importer: unknown source format %q", name)
	}
	return f, nil
}

// FormatNames lists the registered source formats.
func FormatNames() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	return names
}

// columnMap resolves a header row into column-index -> FieldKind, matching
// names case-insensitively and ignoring anything the format does not name.
func (f Format) columnMap(header []string) map[int]FieldKind {
	cols := make(map[int]FieldKind)
	for i, name := range header {
		kind, ok := f.Fields[strings.ToLower(strings.TrimSpace(name))]
		if ok && kind != FieldIgnored {
			cols[i] = kind
		}
	}
	return cols
}
