// Package pipeline connects marketplace events to background work.
//
// It owns the three job kinds the worker pool runs, the event listeners that
// react to orders and weather alerts, the triggers used by the scheduler and
// operators, and the operator HTTP surface for inspecting jobs.
//
// # Usage
//
//	p, err := pipeline.New(pipeline.Deps{
//		Jobs:       enqueuer,
//		Notifier:   notifications,
//		Recipients: resolver,
//		Mailer:     mailer,
//		Catalog:    catalog,
//		Predictor:  predictions,
//		Weather:    weatherClient,
//		Forecasts:  forecastStore,
//	}, pipeline.WithLogger(log))
//	if err != nil {
//		return err
//	}
//
//	if err := worker.RegisterHandlers(p.Handlers()...); err != nil {
//		return err
//	}
//	p.Subscribe(bus)
//	if err := p.Schedule(scheduler, cfg); err != nil {
//		return err
//	}
//
// Listeners run synchronously inside Publish. The weather alert listener only
// locates farmers and enqueues a bulk notification job, so delivery survives a
// crash. The order listeners send their email and notification inline and are
// lost if the process dies mid-publish.
package pipeline
