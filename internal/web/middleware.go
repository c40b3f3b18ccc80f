package web

import (
	"net/http"
	"net/url"

	"marketplace-be/internal/pricing"
	"marketplace-be/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	currencyKey     = "currency"
	defaultLanguage = "ru"
)

// LocaleMiddleware picks the display currency from ?lang= or Accept-Language.
// Requests that name no language get the store's home currency.
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Query("lang")
		if lang == "" {
			lang = pricing.LanguageFromAcceptHeader(c.GetHeader("Accept-Language"))
		}
		if lang == "" {
			lang = defaultLanguage
		}
		c.Set(currencyKey, pricing.CurrencyForLanguage(lang))
		c.Next()
	}
}

func currencyFrom(c *gin.Context) pricing.Currency {
	if v, ok := c.Get(currencyKey); ok {
		if cur, ok := v.(pricing.Currency); ok {
			return cur
		}
	}
	return pricing.RUB
}

// RequireAuth sends anonymous visitors to the login page with a next parameter.
func RequireAuth(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIDFromContext(c.Request.Context()); ok {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, loginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}
