// Package name implements the jurisdiction's name distinguishability rules.
//
// Two business names are considered the same for registration purposes when
// they reduce to the same normalized key. The reduction is a fixed sequence
// of rules (case fold, designator strip, article strip, conjunction and
// suffix normalization, punctuation removal) applied by Normalize.
package name

// Rules holds the immutable rule tables used by Normalize. Passing the
// tables in explicitly keeps the engine a pure function; both the ingestion
// and search paths use the same DefaultRules value.
type Rules struct {
	// Designators are entity-type tokens stripped from the end of a name.
	// Matched as whole trailing tokens only, never as substrings.
	Designators []string

	// Articles are leading tokens stripped when they open a name.
	Articles []string

	// Conjunction is the canonical token both "&" and "AND" reduce to.
	Conjunction string
}

// DefaultRules returns the rule tables for the Division's current
// distinguishability standard.
func DefaultRules() Rules {
	return Rules{
		Designators: []string{
			"LLC", "L.L.C.", "L.L.C", "LC", "L.C.",
			"INC", "INC.", "INCORPORATED",
			"CORP", "CORP.", "CORPORATION",
			"CO", "CO.", "COMPANY",
			"LTD", "LTD.", "LIMITED",
			"LP", "L.P.", "L.P",
			"LLP", "L.L.P.", "L.L.P",
			"LLLP", "L.L.L.P.",
			"PA", "P.A.", "P.A",
			"PL", "P.L.", "PLLC", "P.L.L.C.",
			"PC", "P.C.", "P.C",
			"CHARTERED", "CHTD", "CHTD.",
			"GP", "G.P.",
			"TRUST",
		},
		Articles:    []string{"THE", "A", "AN"},
		Conjunction: "AND",
	}
}
