package models

import "fmt"

// BrandSequenceScope is the counter scope for brand codes.
const BrandSequenceScope = "brand"

// CategorySequenceScope returns the counter scope for one tree level.
func CategorySequenceScope(level int) string {
	return fmt.Sprintf("category-level-%d", level)
}

// CategorySequenceCode formats a category human code, e.g. "CAT-2-14".
func CategorySequenceCode(level int, n int64) string {
	return fmt.Sprintf("CAT-%d-%d", level, n)
}

// BrandSequenceCode formats a brand human code, e.g. "BR-7".
func BrandSequenceCode(n int64) string {
	return fmt.Sprintf("BR-%d", n)
}
