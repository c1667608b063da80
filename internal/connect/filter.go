package connect

import "strings"

// Op is a filter comparison operator.
type Op string

const (
	OpEq Op = "eq"
	OpIn Op = "in"
)

// Filter is a plain field/operator/values triple. The report core builds
// these; only the client knows how to turn them into RQL query strings.
type Filter struct {
	Field  string
	Op     Op
	Values []string
}

// Eq builds an equality filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Op: OpEq, Values: []string{value}}
}

// In builds a membership filter.
func In(field string, values ...string) Filter {
	return Filter{Field: field, Op: OpIn, Values: values}
}

// EncodeRQL serializes filters into a Connect RQL query string, e.g.
// eq(status,listed)&in(product.id,(PRD-1,PRD-2)).
func EncodeRQL(filters []Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		switch f.Op {
		case OpIn:
			parts = append(parts, "in("+f.Field+",("+strings.Join(f.Values, ",")+"))")
		default:
			val := ""
			if len(f.Values) > 0 {
				val = f.Values[0]
			}
			parts = append(parts, string(f.Op)+"("+f.Field+","+val+")")
		}
	}
	return strings.Join(parts, "&")
}
