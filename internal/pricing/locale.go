package pricing

import "strings"

// CurrencyForLanguage picks the display currency: RUB for Russian, USD otherwise.
func CurrencyForLanguage(lang string) Currency {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "ru" || strings.HasPrefix(lang, "ru-") || strings.HasPrefix(lang, "ru_") {
		return RUB
	}
	return USD
}

// LanguageFromAcceptHeader returns the primary tag of the first language in an
// Accept-Language header.
func LanguageFromAcceptHeader(header string) string {
	first := strings.Split(header, ",")[0]
	first = strings.TrimSpace(strings.Split(first, ";")[0])
	return strings.ToLower(strings.SplitN(first, "-", 2)[0])
}
