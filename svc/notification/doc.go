// Package notification persists user notifications and fans them out over
// email, push and SMS.
//
// The stored record is the source of truth. Delivery happens after the record
// is saved and is best effort per channel: a failing channel is logged and
// never rolls back the record or affects the other channels.
//
// Channel selection follows the recipient's Preferences, resolved once per
// send. Email and push default to on, SMS defaults to off and is further
// restricted to notifications of TypeWeatherAlert.
//
//	svc := notification.NewService(store, resolver,
//		notification.WithDispatchers(
//			notification.NewEmailDispatcher(mailer),
//			notification.NewPushDispatcher(pusher),
//			notification.NewSMSDispatcher(texter),
//		),
//	)
//	n, err := svc.SendNotification(ctx, userID, notification.TypeWeatherAlert,
//		"Frost warning", "Cover seedlings tonight", nil)
package notification
