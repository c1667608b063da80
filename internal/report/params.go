package report

import "github.com/Checker-Finance/connect-reports/internal/connect"

// Params are the report-relevant values pulled from an asset's ordered
// parameter list. The list is scanned once in order, so a duplicated
// parameter id resolves last-write-wins.
type Params struct {
	SeamlessMove    string
	HasSeamlessMove bool
	Discount        string
	HasDiscount     bool
	Action          string
	HasAction       bool
	RenewalDate     string
	HasRenewalDate  bool
}

// ExtractParams scans asset parameters for the seamless-move flag, discount
// group, action type and renewal date.
func ExtractParams(params []connect.Param) Params {
	var p Params
	for _, param := range params {
		switch param.ID {
		case "seamless_move":
			p.SeamlessMove = param.Value
			p.HasSeamlessMove = true
		case "discount_group":
			p.Discount = discountLabel(param.Value)
			p.HasDiscount = true
		case "action_type":
			p.Action = param.Value
			p.HasAction = true
		case "renewal_date":
			p.RenewalDate = param.Value
			p.HasRenewalDate = true
		}
	}
	return p
}

// discountLabel maps a raw discount group code to its report label.
func discountLabel(code string) string {
	switch code {
	case "01A12":
		return "Level 1"
	case "02A12":
		return "Level 2"
	case "03A12":
		return "Level 3"
	case "04A12":
		return "Level 4"
	case "":
		return "Empty"
	default:
		return "Other"
	}
}
