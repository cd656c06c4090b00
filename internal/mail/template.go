package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html lang="en" dir="ltr">
<head>
<meta charset="utf-8">
<title>Verification Code</title>
<link href="https://fonts.googleapis.com/css2?family=Roboto&display=swap" rel="stylesheet">
</head>
<body>
<div style="display:none;max-height:0;overflow:hidden">Here's your verification code: {{.OTP}}</div>
<div style="background-color:#ffffff;padding:40px 20px;font-family:Roboto, Verdana, sans-serif">
<div style="max-width:600px;margin:0 auto">
<h2 style="color:#333333;margin-bottom:20px">Hello {{.Username}},</h2>
<p style="color:#666666;font-size:16px;line-height:24px">Thank you for registering. Please use the following verification code to complete your registration:</p>
<p style="background-color:#f4f4f4;padding:12px 24px;border-radius:4px;font-size:24px;font-weight:bold;letter-spacing:4px;text-align:center;margin:20px 0;color:#333333">{{.OTP}}</p>
<p style="color:#666666;font-size:14px">If you did not request this code, please ignore this email.</p>
</div>
</div>
</body>
</html>
`))

type VerificationEmail struct {
	Username string
	OTP      string
}

func (v VerificationEmail) Render() (string, error) {
	var buf bytes.Buffer
	if err := verificationTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render verification email failed: %w", err)
	}
	return buf.String(), nil
}
