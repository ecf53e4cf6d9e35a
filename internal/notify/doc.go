// Package notify delivers broadcast messages over external channels.
//
// SMTPSender sends plain-text email through an SMTP relay, upgrading the
// connection with STARTTLS when the server offers it. TwilioSender posts
// SMS messages to the Twilio Messages API. Both satisfy the sender
// interfaces declared by the service package and honour context deadlines.
package notify
