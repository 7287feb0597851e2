// Package redis connects to Redis through go-redis with retries and exposes a
// readiness probe. The client backs push delivery and the cross-process queue
// wake-up signal.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
package redis
