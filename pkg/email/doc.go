// Package email sends transactional email through Postmark, or writes it to
// disk in development.
//
// Both senders implement EmailSender and validate SendEmailParams before
// doing anything. Failures are wrapped with ErrFailedToSendEmail; bad input
// with ErrInvalidParams.
//
//	sender, err := email.NewFromConfig(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "farmer@example.com",
//		Subject:  "Order Confirmed",
//		BodyHTML: "<p>Your order #A-1001 has been confirmed.</p>",
//		Tag:      "order_confirmation",
//	})
package email
