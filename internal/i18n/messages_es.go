package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.Spanish

	message.SetString(lang, "org.teams.heading", "Equipos")
	message.SetString(lang, "org.teams.empty", "No se encontraron equipos para esta organización.")
	message.Set(lang, "org.teams.members", plural.Selectf(1, "%d",
		"one", "%d miembro",
		"other", "%d miembros"))
	message.SetString(lang, "org.projects.heading", "Proyectos")
	message.SetString(lang, "org.projects.empty.title", "Aloja tu primer proyecto")
	message.SetString(lang, "org.projects.empty.body", "Esta organización todavía no tiene proyectos de documentación. Importa uno para empezar.")
	message.SetString(lang, "org.projects.empty.cta", "Importar un proyecto")
	message.SetString(lang, "org.owners.heading", "Propietarios")
	message.SetString(lang, "org.notifications.heading", "Notificaciones")
	message.SetString(lang, "org.details.heading", "Detalles de la organización")
	message.SetString(lang, "org.details.email", "Correo electrónico")
	message.SetString(lang, "org.details.url", "Sitio web")
}
