// Package prediction talks to the crop-yield prediction service and exposes
// the farmer, farm and crop catalog the daily batch walks.
//
// The client guards the upstream with a circuit breaker: after a run of
// failures it rejects calls with ErrCircuitOpen until the recovery timeout
// passes, so a batch over thousands of crops does not hammer a dead service.
package prediction
