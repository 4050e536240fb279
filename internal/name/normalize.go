package name

import (
	"strings"
)

// Normalize reduces a raw business name to its distinguishability key.
//
// Rules are applied in a fixed order: case fold, trailing designator strip,
// leading article strip, conjunction canonicalization ("&" == "AND"),
// singular/plural/possessive suffix reduction, then punctuation removal and
// whitespace collapse. The whole sequence is re-applied until the output is
// stable, so Normalize(Normalize(x)) == Normalize(x) holds even when one
// rule exposes new work for an earlier one (e.g. a suffix reduction that
// leaves a bare designator at the end of the name).
//
// An empty result means the name cannot be evaluated (empty, punctuation
// only, or nothing but designators); callers must not treat it as a match.
func Normalize(rules Rules, raw string) string {
	prev := strings.TrimSpace(raw)
	for i := 0; i < 8; i++ {
		next := normalizeOnce(rules, prev)
		if next == prev {
			return next
		}
		prev = next
	}
	return prev
}

func normalizeOnce(rules Rules, raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	// Pad ampersands so glued forms like "A&B" tokenize.
	s = strings.ReplaceAll(s, "&", " & ")

	tokens := strings.Fields(s)

	tokens = stripTrailingDesignators(rules, tokens)
	tokens = stripLeadingArticles(rules, tokens)

	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "&" || tok == rules.Conjunction {
			out = append(out, rules.Conjunction)
			continue
		}
		tok = reduceSuffix(tok)
		tok = stripPunct(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}

	return strings.Join(out, " ")
}

func stripTrailingDesignators(rules Rules, tokens []string) []string {
	for len(tokens) > 0 {
		last := strings.Trim(tokens[len(tokens)-1], ",;")
		if !isDesignator(rules, last) {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

func stripLeadingArticles(rules Rules, tokens []string) []string {
	for len(tokens) > 0 {
		first := strings.Trim(tokens[0], ",;")
		if !isArticle(rules, first) {
			break
		}
		tokens = tokens[1:]
	}
	return tokens
}

func isDesignator(rules Rules, tok string) bool {
	for _, d := range rules.Designators {
		if tok == d {
			return true
		}
	}
	return false
}

func isArticle(rules Rules, tok string) bool {
	for _, a := range rules.Articles {
		if tok == a {
			return true
		}
	}
	return false
}

// reduceSuffix collapses possessive and plural variants of a word:
// a trailing apostrophe-S or bare apostrophe is removed, then a single
// trailing "S" is dropped when the remainder is non-empty. Words ending in
// a double "S" keep it, which keeps the reduction stable under repeated
// application. This is the jurisdiction's heuristic, not a dictionary;
// irregular words over- or under-strip and that is intentional.
func reduceSuffix(tok string) string {
	tok = strings.TrimSuffix(tok, "'S")
	tok = strings.TrimSuffix(tok, "'")
	if len(tok) > 1 && strings.HasSuffix(tok, "S") && !strings.HasSuffix(tok, "SS") {
		tok = tok[:len(tok)-1]
	}
	return tok
}

// stripPunct drops every rune outside A-Z and 0-9.
func stripPunct(tok string) string {
	var b strings.Builder
	b.Grow(len(tok))
	for _, r := range tok {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
