// Package i18n holds the UI string catalog and locale matching.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported lists the UI languages; the first is the fallback.
var Supported = []language.Tag{language.English, language.Spanish}

var matcher = language.NewMatcher(Supported)

// entries maps each message key to its Spanish text. English uses the key itself.
var entries = map[string]string{
	"Home":                              "Inicio",
	"About":                             "Acerca de",
	"Events":                            "Eventos",
	"Donate":                            "Donar",
	"Analytics":                         "Estadísticas",
	"Dashboard":                         "Panel",
	"My registrations":                  "Mis inscripciones",
	"Account":                           "Cuenta",
	"Admin":                             "Administración",
	"Log in":                            "Iniciar sesión",
	"Log out":                           "Cerrar sesión",
	"Sign up":                           "Registrarse",
	"Register":                          "Inscribirse",
	"Cancel":                            "Cancelar",
	"Search":                            "Buscar",
	"Upcoming":                          "Próximos",
	"Past":                              "Pasados",
	"Previous":                          "Anterior",
	"Next":                              "Siguiente",
	"Full":                              "Completo",
	"Registered":                        "Inscrito",
	"Spots left: %d":                    "Plazas libres: %d",
	"Showing %d-%d of %d":               "Mostrando %d-%d de %d",
	"Registered for %s":                 "Inscripción confirmada: %s",
	"Registration cancelled":            "Inscripción cancelada",
	"Thank you for your donation of %s": "Gracias por su donación de %s",
	"Survey submitted, thank you":       "Encuesta enviada, gracias",
	"Authentication error":              "Error de autenticación",
	"Please log in to continue":         "Inicie sesión para continuar",
	"Language":                          "Idioma",
}

var cat = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, es := range entries {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Spanish, key, es)
	}
	return b
}()

// Match picks the best supported language for a cookie value and an
// Accept-Language header, in that order of preference.
// POST: Returns one of Supported
func Match(cookie, acceptLanguage string) language.Tag {
	var prefs []language.Tag
	if cookie != "" {
		if t, err := language.Parse(cookie); err == nil {
			prefs = append(prefs, t)
		}
	}
	if accepted, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		prefs = append(prefs, accepted...)
	}
	_, idx, _ := matcher.Match(prefs...)
	return Supported[idx]
}

// IsSupported reports whether code names one of the supported languages exactly.
func IsSupported(code string) bool {
	t, err := language.Parse(code)
	if err != nil {
		return false
	}
	for _, s := range Supported {
		if s == t {
			return true
		}
	}
	return false
}

// Printer returns a printer that translates keys and formats numbers for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}
