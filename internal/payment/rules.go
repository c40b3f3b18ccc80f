package payment

import (
	"unicode"
	"unicode/utf8"
)

const AccountLength = 9

// ValidAccountLength reports whether an account number may be submitted at all.
func ValidAccountLength(account string) bool {
	return utf8.RuneCountInString(account) == AccountLength
}

// AccountPasses is the simulator's verdict: the payment passes when the
// account's last character is an even decimal digit in any script.
func AccountPasses(account string) bool {
	last, _ := utf8.DecodeLastRuneInString(account)
	value, ok := digitValue(last)
	return ok && value%2 == 0
}

// digitValue returns the value of a decimal digit (Unicode Nd). Nd runes come
// in contiguous runs of ten starting at zero, so the count of digits directly
// below r modulo ten is its value.
func digitValue(r rune) (int, bool) {
	if !unicode.IsDigit(r) {
		return 0, false
	}
	below := 0
	for unicode.IsDigit(r - rune(below) - 1) {
		below++
	}
	return below % 10, true
}
