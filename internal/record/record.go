package record

import "time"

// Address is one free-text address block from an extract line.
type Address struct {
	Line1 string `json:"line1,omitempty"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
	Zip   string `json:"zip,omitempty"`
}

// Record is one parsed extract line. DocumentNumber is the Division's
// unique identifier and the sole upsert key; it is never empty on a
// successfully parsed record. Date fields are nil when the source field was
// blank, all zeroes, or not a valid calendar date — all three are routine
// in the extracts and none of them fails the record.
type Record struct {
	Kind           Kind       `json:"kind"`
	DocumentNumber string     `json:"document_number"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	FiledDate      *time.Time `json:"filed_date,omitempty"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	CancelDate     *time.Time `json:"cancel_date,omitempty"`
	ExpireDate     *time.Time `json:"expire_date,omitempty"`

	Principal Address `json:"principal,omitempty"`
	Mailing   Address `json:"mailing,omitempty"`

	// Kind-specific extras. RegisteredAgent is set for entities, OwnerName
	// and County for fictitious names, PartnerCount for partnerships.
	RegisteredAgent string `json:"registered_agent,omitempty"`
	OwnerName       string `json:"owner_name,omitempty"`
	County          string `json:"county,omitempty"`
	PartnerCount    int    `json:"partner_count,omitempty"`
}
