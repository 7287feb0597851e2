// Package requestid tags every operator HTTP request with a correlation id.
//
// Middleware reuses a well-formed X-Request-ID header or generates a UUID,
// echoes it in the response and stores it in the request context.
// LoggerExtractor adds it to every record logged with that context, and jobs
// enqueued from the request carry it in their logs through the same context.
package requestid
