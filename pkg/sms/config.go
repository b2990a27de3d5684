package sms

import "regexp"

// Config holds Twilio credentials and the sending number.
type Config struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID,required"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN,required"`
	FromNumber string `env:"TWILIO_FROM_NUMBER,required"`
}

// phoneRegex matches E.164 numbers, which is the only form Twilio accepts
// without a messaging service attached.
var phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
