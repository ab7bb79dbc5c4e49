package analysis

import (
	"regexp"
	"strings"
)

// primitiveTypeNames are the capitalized tokens that still name a
// primitive value rather than a user type (§4.9/§4.10's "primitive"
// exclusion); everything else capitalized is treated as a shared
// non-primitive type.
var primitiveTypeNames = map[string]bool{
	"String": true,
}

var identifierToken = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// signatureTypeNames naively extracts the set of non-primitive type
// names a signature mentions (§4.10): generics delimiters, references,
// and lifetime markers are stripped first, then every capitalized
// identifier token survives as a candidate type name. This is
// deliberately approximate — it doesn't distinguish a parameter type
// from a return type, or track arity — matching the "naive" parse the
// type-flow tracer and clusterer both call for.
func signatureTypeNames(sig string) []string {
	cleaned := strings.NewReplacer(
		"<", " ", ">", " ", "&", " ", "'", " ",
		"(", " ", ")", " ", ",", " ", ":", " ", "[", " ", "]", " ",
	).Replace(sig)

	seen := make(map[string]bool)
	var out []string
	for _, tok := range identifierToken.FindAllString(cleaned, -1) {
		if !isUpperStart(tok) || primitiveTypeNames[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func isUpperStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}
