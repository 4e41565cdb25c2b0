// Package email sends transactional mail through a provider-agnostic
// EmailSender.
//
// Two senders are available:
//   - the Postmark client for real delivery (github.com/mrz1836/postmark)
//   - DevSender, which writes each message to a directory as HTML, text and
//     JSON metadata files so links can be followed during local development
//
// New picks one from Config.Backend. Every sender validates SendEmailParams
// before doing any work.
//
//	sender, err := email.New(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Confirm your account",
//		BodyHTML: html,
//		BodyText: text,
//		Tag:      "confirm",
//	})
//
// Failures wrap ErrFailedToSendEmail; bad configuration wraps
// ErrInvalidConfig and bad parameters wrap ErrInvalidParams.
package email
