package onboarding

import "strings"

// SummaryRow is one label/value line of the confirmation screen.
type SummaryRow struct {
	Label string
	Value string
}

// Summarize builds the confirmation rows shown once the form is accepted.
func Summarize(d Draft) []SummaryRow {
	var addr []string
	for _, part := range []string{d.Address1, d.City, d.State, d.Zip} {
		if part != "" {
			addr = append(addr, part)
		}
	}

	insurance := d.InsuranceProvider
	if d.MemberID != "" {
		insurance += " (" + d.MemberID + ")"
	}

	reason := d.Reason
	if reason == "" {
		reason = "—"
	}

	return []SummaryRow{
		{Label: "Name", Value: d.FullName},
		{Label: "Email", Value: d.Email},
		{Label: "Phone", Value: d.Phone},
		{Label: "DOB", Value: d.DOB},
		{Label: "Sex", Value: string(d.Sex)},
		{Label: "Address", Value: strings.Join(addr, ", ")},
		{Label: "Insurance", Value: insurance},
		{Label: "Reason", Value: reason},
	}
}
