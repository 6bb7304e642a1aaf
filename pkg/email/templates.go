package email

import (
	"fmt"
	"html"
)

// NoticeEmailData is an in-app notification rendered for email delivery.
type NoticeEmailData struct {
	Name    string
	Email   string
	Title   string
	Body    string
	AppName string
}

// BuildNoticeEmail renders an appointment notice (booking, cancellation,
// reminder, documentation prompt) as a text+HTML message.
func BuildNoticeEmail(data NoticeEmailData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "Physio"
	}

	name := data.Name
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("%s: %s", appName, data.Title)

	textBody := fmt.Sprintf(`Hi %s,

%s

Thanks,
The %s Team`,
		name, data.Body, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">%s</h2>
    <p>Hi %s,</p>
    <p>%s</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>The %s Team</p>
</body>
</html>`,
		html.EscapeString(data.Title),
		html.EscapeString(name),
		html.EscapeString(data.Body),
		html.EscapeString(appName))

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
