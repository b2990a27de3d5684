package email

import "regexp"

// Config holds email provider configuration.
// SenderEmail establishes the from identity; ReplyToEmail is where customer
// responses land (usually the shop's inbox, not the sending domain).
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"NOTIFY_SENDER_EMAIL,required"`
	ReplyToEmail         string `env:"NOTIFY_REPLY_TO_EMAIL,required"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
