// Package sms provides the SMS channel providers for the notification
// delivery engine.
//
// TwilioProvider sends through the Twilio Programmable Messaging API and
// normalizes Twilio REST errors into classify.ProviderError. MockProvider
// is an in-memory double for tests and local development that also reports
// segment counts, so pacing and cost accounting can be exercised without a
// live account.
//
// Recipients are expected in E.164 form. Segment estimation for rendered
// bodies lives in pkg/template; providers only report what the carrier API
// actually billed.
package sms
