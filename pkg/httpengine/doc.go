// Package httpengine performs single HTTP round trips for the object database
// adapters.
//
// A caller describes each call with a fresh Request value: URL, method (any
// verb token), headers, a body source and a response body sink. Perform
// executes it synchronously and reports the status. Nothing is shared between
// two Perform calls apart from the pooled connections of the process-wide
// transport.
//
// The shared transport has an explicit lifecycle:
//
//	if err := httpengine.Init(); err != nil { ... }
//	defer httpengine.Shutdown()
//
// Init and Shutdown are reference counted, so every component that creates
// engines may pair its own calls.
package httpengine
