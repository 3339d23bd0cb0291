package email

const baseStyle = `
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #0F766E;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .button {
            display: inline-block;
            background-color: #0F766E;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>`

const verificationTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">` + baseStyle + `
</head>
<body>
    <div class="header">
        <h1>Welcome to EventHub!</h1>
    </div>
    <div class="content">
        <h2>Confirm your email address</h2>
        <p>Thanks for signing up. Click the button below to confirm your email and start booking events.</p>

        <a href="{{.Link}}" class="button" style="color: white !important;">Confirm Email</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #0F766E;">{{.Link}}</p>

        <p style="margin-top: 30px;">If you didn't create an EventHub account, you can ignore this email.</p>
    </div>
    <div class="footer">
        <p>This link expires in {{expiry}}.</p>
    </div>
</body>
</html>
`

const passwordResetTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">` + baseStyle + `
</head>
<body>
    <div class="header">
        <h1>Password Reset</h1>
    </div>
    <div class="content">
        <h2>Choose a new password</h2>
        <p>We received a request to reset your EventHub password. Click the button below to pick a new one.</p>

        <a href="{{.Link}}" class="button" style="color: white !important;">Reset Password</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #0F766E;">{{.Link}}</p>

        <p style="margin-top: 30px;">If you didn't ask for this, ignore this email. Your password stays the same.</p>
    </div>
    <div class="footer">
        <p>This link expires in {{expiry}}.</p>
    </div>
</body>
</html>
`
