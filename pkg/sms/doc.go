// Package sms sends text messages through AWS SNS direct publish, or logs them
// in development.
//
//	sender, err := sms.NewFromConfig(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	err = sender.SendSMS(ctx, sms.SendSMSParams{
//		PhoneNumber: "+254700000001",
//		Message:     "Weather alert: frost. Cover seedlings tonight.",
//	})
package sms
