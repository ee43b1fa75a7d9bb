package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

const layout = `<!DOCTYPE html>
<html>
<head>
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #E8590C; color: white; padding: 10px; text-align: center; }
		.content { padding: 20px; }
		.button { display: inline-block; background-color: #E8590C; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header"><h1>Chantier-Direct</h1></div>
		<div class="content">
			<h2>Bonjour {{.Name}},</h2>
			{{template "body" .}}
			<p>L'équipe Chantier-Direct</p>
		</div>
	</div>
</body>
</html>`

var (
	reviewedTemplate = mustTemplate("reviewed", `
			{{if .Approved}}
			<p>Votre document <strong>{{.DocumentLabel}}</strong> a été validé.</p>
			{{else}}
			<p>Votre document <strong>{{.DocumentLabel}}</strong> a été refusé.</p>
			<p>Motif : {{.Reason}}</p>
			<p>Merci de déposer une nouvelle version.</p>
			{{end}}
			<p><a href="{{.Link}}" class="button">Mes documents</a></p>`)

	reminderTemplate = mustTemplate("reminder", `
			<p>Votre compte ne peut pas encore répondre aux appels d'offres. Les documents suivants sont manquants ou refusés :</p>
			<ul>{{range .Outstanding}}<li>{{.}}</li>{{end}}</ul>
			<p><a href="{{.Link}}" class="button">Déposer mes documents</a></p>`)
)

func mustTemplate(name, body string) *template.Template {
	t := template.Must(template.New(name).Parse(layout))
	template.Must(t.New("body").Parse(body))
	return t
}

// DocumentReviewed is the data of the review outcome email
type DocumentReviewed struct {
	Name          string
	DocumentLabel string
	Approved      bool
	Reason        string
	Link          string
}

// VerificationReminder is the data of the outstanding documents email
type VerificationReminder struct {
	Name        string
	Outstanding []string
	Link        string
}

// DocumentReviewedMessage renders the review outcome email
func DocumentReviewedMessage(to string, data DocumentReviewed) (Message, error) {
	subject := "Votre document a été validé"
	if !data.Approved {
		subject = "Votre document a été refusé"
	}
	html, err := render(reviewedTemplate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: html}, nil
}

// VerificationReminderMessage renders the outstanding documents email
func VerificationReminderMessage(to string, data VerificationReminder) (Message, error) {
	html, err := render(reminderTemplate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Complétez votre dossier Chantier-Direct", HTML: html}, nil
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error rendering email: %w", err)
	}
	return buf.String(), nil
}
