package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseReason classifies why a line was rejected.
type ParseReason string

const (
	// TooShort means the line is shorter than the layout's minimum width.
	TooShort ParseReason = "too_short"
	// MissingDocNumber means the document-number field was blank; the store
	// cannot key such a record so it is rejected rather than stored.
	MissingDocNumber ParseReason = "missing_doc_number"
)

// ParseError is a rejected line, returned as a value so the pipeline can
// count and skip it. It is never raised as a panic.
type ParseError struct {
	Kind   Kind
	Reason ParseReason
	Line   int64 // 1-based offset in the source file
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s line %d: %s (%s)", e.Kind, e.Line, e.Reason, e.Detail)
}

// Parse slices one fixed-width extract line per the layout. It is a pure
// mapping: no I/O, no shared state. lineNum is carried into any ParseError
// for operator-facing reporting only.
func Parse(l *Layout, lineNum int64, line string) (*Record, *ParseError) {
	if len(line) < l.MinLineLen {
		return nil, &ParseError{
			Kind:   l.Kind,
			Reason: TooShort,
			Line:   lineNum,
			Detail: fmt.Sprintf("%d chars, need %d", len(line), l.MinLineLen),
		}
	}

	get := func(name string) string {
		f, ok := l.field(name)
		if !ok {
			return ""
		}
		return strings.TrimSpace(line[f.Start:f.End])
	}

	doc := get("doc_number")
	if doc == "" {
		return nil, &ParseError{
			Kind:   l.Kind,
			Reason: MissingDocNumber,
			Line:   lineNum,
			Detail: "blank document number field",
		}
	}

	rec := &Record{
		Kind:           l.Kind,
		DocumentNumber: doc,
		Name:           get("name"),
		Status:         get("status"),
		FiledDate:      parseDate(get("filed_date")),
		EffectiveDate:  parseDate(get("effective_date")),
		CancelDate:     parseDate(get("cancel_date")),
		ExpireDate:     parseDate(get("expire_date")),
		Principal: Address{
			Line1: get("prin_addr1"),
			Line2: get("prin_addr2"),
			City:  get("prin_city"),
			State: get("prin_state"),
			Zip:   get("prin_zip"),
		},
		Mailing: Address{
			Line1: get("mail_addr1"),
			Line2: get("mail_addr2"),
			City:  get("mail_city"),
			State: get("mail_state"),
			Zip:   get("mail_zip"),
		},
		RegisteredAgent: get("registered_agent"),
		OwnerName:       get("owner_name"),
		County:          get("county"),
		PartnerCount:    parseIntOr(get("partner_count"), 0),
	}

	return rec, nil
}

// parseDate parses a YYYYMMDD field. Blank, all-zero, and unparseable
// values are routine placeholders in the extracts and yield nil, never an
// error.
func parseDate(s string) *time.Time {
	if s == "" || s == strings.Repeat("0", len(s)) {
		return nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return nil
	}
	return &t
}

// parseIntOr parses a numeric field, returning def when blank or malformed.
func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
