package middleware

import (
	"context"
	"net/http"

	"golang.org/x/text/language"

	"outreach/internal/adapters/http/i18n"
)

const localeContextKey contextKey = "locale"

// LangCookieName names the cookie holding the chosen UI language.
const LangCookieName = "lang"

// Locale returns middleware that resolves the UI language from the lang
// cookie, then Accept-Language, and stores it in the request context.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cookie string
		if c, err := r.Cookie(LangCookieName); err == nil {
			cookie = c.Value
		}
		tag := i18n.Match(cookie, r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeContextKey, tag)))
	})
}

// LocaleFromContext returns the resolved language, English when unset.
func LocaleFromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(localeContextKey).(language.Tag); ok {
		return tag
	}
	return language.English
}

// SetLangCookie remembers the language choice for a year.
func SetLangCookie(w http.ResponseWriter, code string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    code,
		Path:     "/",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   365 * 24 * 60 * 60,
	})
}
