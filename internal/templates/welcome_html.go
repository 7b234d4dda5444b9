package templates

import (
	"bytes"
	"html/template"
)

type WelcomeEmailData struct {
	RecipientName string
	AvatarURL     string
	AppURL        string
}

const welcomeHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8"/>
  <title>Welcome to AI Shadow</title>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: Arial, sans-serif;
      background-color: #f5f5f5;
      color: #333;
    }
    .email-container {
      width: 100%;
      max-width: 600px;
      margin: 0 auto;
      background-color: #ffffff;
      border-radius: 6px;
      overflow: hidden;
      box-shadow: 0 2px 5px rgba(0,0,0,0.1);
    }
    .header {
      background-color: #1e1b4b;
      padding: 20px;
      text-align: center;
      color: #fff;
    }
    .header h1 {
      margin: 10px 0 0;
      font-size: 24px;
    }
    .content {
      padding: 20px;
      text-align: left;
    }
    .avatar-container {
      text-align: center;
      margin: 10px 0 20px;
    }
    .avatar-container img {
      width: 60px;
      height: 60px;
      border-radius: 50%;
    }
    .button-container {
      text-align: center;
      margin: 20px 0;
    }
    .cta-button {
      display: inline-block;
      padding: 12px 24px;
      background-color: #6366f1;
      color: #ffffff;
      text-decoration: none;
      border-radius: 4px;
      font-weight: bold;
    }
    .footer {
      font-size: 12px;
      color: #999;
      text-align: center;
      padding: 10px 20px;
    }
    .highlight {
      font-weight: bold;
      color: #333;
    }
  </style>
</head>
<body>
  <table class="email-container" role="presentation" cellspacing="0" cellpadding="0">
    <tr>
      <td>
        <div class="header">
          <h1>Welcome to AI Shadow</h1>
        </div>

        <div class="content">
          {{if .RecipientName}}
            <p>Hi <span class="highlight">{{.RecipientName}}</span>,</p>
          {{else}}
            <p>Hello,</p>
          {{end}}

          {{if .AvatarURL}}
          <div class="avatar-container">
            <img src="{{.AvatarURL}}" alt="Your avatar" />
          </div>
          {{end}}

          <p>Your account is ready. Pick a mode that fits what you need and start a conversation.</p>

          {{if .AppURL}}
          <div class="button-container">
            <a class="cta-button" href="{{.AppURL}}">Start chatting</a>
          </div>
          {{end}}
        </div>

        <div class="footer">
          <p>You are receiving this email because you created an AI Shadow account.</p>
        </div>
      </td>
    </tr>
  </table>
</body>
</html>
`

var welcomeTmpl = template.Must(template.New("welcome").Parse(welcomeHTML))

func RenderWelcomeHTML(data WelcomeEmailData) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
