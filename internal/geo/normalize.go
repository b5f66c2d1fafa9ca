package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalProvinces lists the administrative regions the baseline tables
// break down by, in their canonical spelling.
var CanonicalProvinces = []string{
	"Drenthe",
	"Flevoland",
	"Fryslân",
	"Gelderland",
	"Groningen",
	"Limburg",
	"Noord-Brabant",
	"Noord-Holland",
	"Overijssel",
	"Utrecht",
	"Zeeland",
	"Zuid-Holland",
}

var deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var provinceByKey = func() map[string]string {
	m := make(map[string]string, len(CanonicalProvinces))
	for _, p := range CanonicalProvinces {
		m[NormalizeRegionKey(p)] = p
	}
	return m
}()

// NormalizeRegionKey reduces a region label to a comparison key:
// accents stripped, lowercased, hyphens and apostrophes normalized,
// whitespace collapsed. "Fryslân", "fryslan" and "FRYSLAN" all map to the
// same key.
func NormalizeRegionKey(name string) string {
	stripped, _, err := transform.String(deaccent, name)
	if err != nil {
		stripped = name
	}
	s := strings.ToLower(strings.TrimSpace(stripped))
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "'", "")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalRegionName maps a possibly differently-spelled region label to
// its canonical form, or returns "" when the label names no known region.
func CanonicalRegionName(name string) string {
	if name == "" {
		return ""
	}
	return provinceByKey[NormalizeRegionKey(name)]
}
