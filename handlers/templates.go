package handlers

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/twingatebot/models"
)

const commandList = `{{define "commands"}}🚀 <b>Available Commands:</b>
• /start - Show welcome message
• /verify - Begin verification process
• /help - Show help information
• /status - Check your verification status{{end}}`

var templates = template.Must(template.Must(template.New("replies").Parse(commandList)).Parse(`
{{define "start"}}👋 <b>Hello {{.Name}}!</b> Welcome to Twin Gate!

🌐 <b>Twin3.ai Human Identity Verification System</b>

Prove your humanity and earn your digital identity through our three-stage verification process.

🎯 <b>Your Current Status:</b>
• Verification Level: {{.Status.Level}}/{{.Status.MaxLevel}}
• SBT Tokens: {{.Status.SBTTokens}}
• Reputation Score: {{.Status.Reputation}}

{{template "commands" .}}

Click /verify to begin your human identity verification journey!{{end}}

{{define "verify"}}🔐 <b>Verification System</b>

🤖 <b>Three-Stage Verification Process:</b>
<b>Stage 1</b> - Basic Verification: Google reCAPTCHA
<b>Stage 2</b> - Phone Verification: SMS
<b>Stage 3</b> - Biometric Verification: Twin3.ai API

💰 <b>Progress Rewards:</b>
• Stages must be completed in order
• Earn an SBT upon completion
• Minimum passing score: 100 points

The verification system is under development. Please check back soon!{{end}}

{{define "help"}}📖 <b>Help Information</b>

{{template "commands" .}}

📘 <b>Contact Information:</b>
• Telegram Bot: @twin3bot
• Website: twin3.ai

If you encounter any issues, please contact our support team.{{end}}

{{define "status"}}📊 <b>Your Verification Status</b>

Hello {{.Name}}!

📈 <b>Current Progress:</b>
• Verification Level: {{.Status.Level}}/{{.Status.MaxLevel}}
• SBT Tokens: {{.Status.SBTTokens}}
• Reputation Score: {{.Status.Reputation}}

Ready to begin? Use /verify!{{end}}

{{define "default"}}Hello {{.Name}}! I'm the Twin Gate Bot.

I didn't understand that command.

{{template "commands" .}}{{end}}

{{define "startup"}}✅ <b>Twin Gate Bot started</b>

🤖 <b>Version:</b> {{.Version}}
⏰ <b>Started at:</b> {{.StartedAt}}{{end}}
`))

type replyData struct {
	Name      string
	Status    models.VerificationStatus
	Version   string
	StartedAt string
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// render executes a template and adapts the markup to f. Anything but HTML is
// sent as plain text.
func render(name string, data replyData, f models.Formatting) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	text := strings.TrimSpace(buf.String())
	if f == models.FormatHTML {
		return text, nil
	}
	return html.UnescapeString(tagPattern.ReplaceAllString(text, "")), nil
}
