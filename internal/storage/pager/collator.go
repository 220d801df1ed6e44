package pager

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CollateComparator returns a Comparator that orders varchar values using
// locale-aware collation for the given BCP 47 tag (e.g. "de", "sv",
// "en-US") instead of DefaultComparator's plain byte-wise order, while
// falling back to DefaultComparator's numeric rules for every non-varchar
// tag. An invalid or empty locale tag falls back to language.Und, which
// collate.New renders as a root-locale (still deterministic) ordering.
//
// This matters for primary keys drawn from user-facing text: byte-wise
// order on UTF-8 puts "Ö" after "Z", which is wrong for a German or
// Swedish PK column someone expects to browse in alphabetical order via
// IterFrom.
func CollateComparator(locale string) Comparator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	col := collate.New(tag)
	return func(a, b Value) int {
		if a.Tag == TagVarchar && b.Tag == TagVarchar {
			return col.CompareString(a.Str, b.Str)
		}
		return DefaultComparator(a, b)
	}
}
