package middleware

import (
	"net/http"

	"github.com/cassiomorais/checkout/internal/i18n"
	"golang.org/x/text/language"
)

// Locale stores the caller's preferred language on the request context.
// Requests without Accept-Language get fallback.
func Locale(fallback language.Tag) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := fallback
			if header := r.Header.Get("Accept-Language"); header != "" {
				tag = i18n.ParseAcceptLanguage(header)
			}
			next.ServeHTTP(w, r.WithContext(i18n.WithLocale(r.Context(), tag)))
		})
	}
}
