// Package record defines the three Division record kinds and the
// fixed-width parser that turns raw extract lines into structured records.
package record

import (
	"github.com/rotisserie/eris"
)

// Kind identifies one of the Division's filing categories. Each kind is
// distributed as its own fixed-width extract file with its own layout.
type Kind string

const (
	KindEntity      Kind = "entity"
	KindFictitious  Kind = "fictitious"
	KindPartnership Kind = "partnership"
)

// Kinds lists every record kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindEntity, KindFictitious, KindPartnership}
}

// ParseKind converts a CLI/config string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "entity", "entities", "cor":
		return KindEntity, nil
	case "fictitious", "fictitious-name", "fic":
		return KindFictitious, nil
	case "partnership", "partnerships", "gp":
		return KindPartnership, nil
	default:
		return "", eris.Errorf("unknown record kind: %q (valid: entity, fictitious, partnership)", s)
	}
}

func (k Kind) String() string { return string(k) }
