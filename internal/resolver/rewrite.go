package resolver

import "strings"

// BroadTerms maps specific ingredients onto wider categories
var BroadTerms = map[string]string{
	"rice":       "grain",
	"white rice": "grain",
	"lentils":    "legume",
	"lentil":     "legume",
	"beans":      "legume",
	"bean":       "legume",
	"chicken":    "poultry",
	"broccoli":   "vegetable",
}

// Synonyms maps regional or alternate ingredient names onto the name the API knows
var Synonyms = map[string]string{
	"scallion":     "green onion",
	"spring onion": "green onion",
	"cilantro":     "coriander",
	"courgette":    "zucchini",
	"aubergine":    "eggplant",
	"garbanzo":     "chickpea",
	"capsicum":     "bell pepper",
	"rocket":       "arugula",
	"prawn":        "shrimp",
	"mince":        "ground beef",
}

// Pluralize lowercases and appends "s" unless the word already ends in "s"
func Pluralize(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

// Normalize lowercases, strips every trailing "s" and percent-encodes inner spaces
func Normalize(s string) string {
	s = strings.TrimRight(strings.ToLower(s), "s")
	return strings.ReplaceAll(s, " ", "%20")
}

// Broaden maps the de-pluralized ingredient through BroadTerms, falling back
// to the normalized form
func Broaden(s string) string {
	key := strings.TrimRight(strings.ToLower(s), "s")
	if b, ok := BroadTerms[key]; ok {
		return b
	}
	if b, ok := BroadTerms[strings.ToLower(s)]; ok {
		return b
	}
	return Normalize(s)
}

// Substitute tries the broad category first, then a synonym, then the normalized form
func Substitute(s string) string {
	lower := strings.ToLower(s)
	key := strings.TrimRight(strings.ReplaceAll(lower, "%20", " "), "s")
	for _, k := range []string{lower, key} {
		if b, ok := BroadTerms[k]; ok {
			return b
		}
	}
	for _, k := range []string{lower, key} {
		if syn, ok := Synonyms[k]; ok {
			return syn
		}
	}
	return Normalize(key)
}

// Map applies fn to every element
func Map(items []string, fn func(string) string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = fn(s)
	}
	return out
}
