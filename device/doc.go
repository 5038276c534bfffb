// Package device implements the device-side controller of a padlink
// link: a single-threaded, poll-driven loop that drains available
// transport bytes into the frame decoder, sends button and heartbeat
// frames to the host, and mutes operator diagnostics while the bridge
// is connected.
//
// The controller mirrors the cooperative main loop of the device
// firmware: one entry point, Poll, is invoked repeatedly by an outer
// loop; it consumes all currently available input bytes and returns
// without blocking. Nothing in this package starts goroutines except
// StreamPort, which exists to adapt blocking transports to the
// non-blocking Port contract.
package device
