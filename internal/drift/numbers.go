package drift

import "regexp"

// numberPattern matches an optional sign followed by digits with at most one
// embedded decimal point. Thousands separators split a number; exponents and
// currency symbols are not part of it.
var numberPattern = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

// ExtractNumbers returns every numeric token of text, left to right, exactly
// as written. The result is never nil.
func ExtractNumbers(text string) []string {
	found := numberPattern.FindAllString(text, -1)
	if found == nil {
		return []string{}
	}
	return found
}

// NumericComparison compares the numeric tokens of two texts.
type NumericComparison struct {
	OriginalNumbers []string `json:"original_numbers"`
	CleanedNumbers  []string `json:"cleaned_numbers"`
	Mismatch        bool     `json:"mismatch"`
}

// CompareNumbers compares the numbers of original and cleaned in order:
// a missing, added, changed or reordered number is a mismatch.
func CompareNumbers(original, cleaned string) NumericComparison {
	return compareNumbers(original, cleaned, ModeOrdered)
}

func compareNumbers(original, cleaned string, mode Mode) NumericComparison {
	a, b := ExtractNumbers(original), ExtractNumbers(cleaned)
	return NumericComparison{
		OriginalNumbers: a,
		CleanedNumbers:  b,
		Mismatch:        !equalSeq(a, b, mode),
	}
}
