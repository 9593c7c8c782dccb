package domain

import "strings"

// Restrictions is a set of normalized dietary restriction tags, e.g. "gluten-free"
type Restrictions []string

// NormalizeTag lowercases a tag and turns inner spaces into hyphens
func NormalizeTag(tag string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(tag)), " ", "-")
}

// NewRestrictions normalizes tags, dropping blanks and duplicates while keeping order
func NewRestrictions(tags ...string) Restrictions {
	seen := make(map[string]bool, len(tags))
	var out Restrictions
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// ParseRestrictions splits a comma-separated list into normalized tags
func ParseRestrictions(s string) Restrictions {
	return NewRestrictions(strings.Split(s, ",")...)
}

// Has reports whether the normalized tag is present
func (r Restrictions) Has(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range r {
		if t == tag {
			return true
		}
	}
	return false
}

// String joins the tags with commas, the form used by the store and the API diet parameter
func (r Restrictions) String() string {
	return strings.Join(r, ",")
}
