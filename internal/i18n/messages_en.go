package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, "org.teams.heading", "Teams")
	message.SetString(lang, "org.teams.empty", "No teams found for this organization.")
	message.Set(lang, "org.teams.members", plural.Selectf(1, "%d",
		"one", "%d member",
		"other", "%d members"))
	message.SetString(lang, "org.projects.heading", "Projects")
	message.SetString(lang, "org.projects.empty.title", "Host your first project")
	message.SetString(lang, "org.projects.empty.body", "This organization has no documentation projects yet. Import one to get started.")
	message.SetString(lang, "org.projects.empty.cta", "Import a project")
	message.SetString(lang, "org.owners.heading", "Owners")
	message.SetString(lang, "org.notifications.heading", "Notifications")
	message.SetString(lang, "org.details.heading", "Organization details")
	message.SetString(lang, "org.details.email", "Email")
	message.SetString(lang, "org.details.url", "Website")
}
