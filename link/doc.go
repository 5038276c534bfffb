// Package link implements the padlink binary framing protocol spoken
// between a macropad-class device and its host-side bridge over a
// byte-oriented, possibly noisy, full-duplex serial transport.
//
// # Wire Format
//
// A frame is the single wire unit:
//
//	[START(0xAA)][BODY_LEN(2, big-endian)][BODY(BODY_LEN)][CHECKSUM(1)]
//
// The body is a message type byte followed by its payload, so BODY_LEN
// always includes the type byte and must be in [1, 512]. The checksum
// is the 8-bit additive sum of the body bytes; both ends of the link
// use the same function. No escaping or byte-stuffing is used — the
// length-delimited framing alone protects payload bytes that happen to
// equal the start marker, because the decoder never searches for a
// marker inside a body.
//
// # Decoding
//
// Decoder consumes arbitrary incoming bytes and advances a five-state
// machine (wait-start, length-hi, length-lo, body, checksum), emitting
// only complete, checksum-valid messages to the registered handlers.
// It is self-resynchronizing: an invalid length, a checksum mismatch,
// or an inter-byte gap longer than the frame timeout silently discards
// the partial frame and the machine waits for the next start marker.
// None of these conditions surface as errors to the caller; line noise
// and truncated frames are expected operating conditions.
//
// # Liveness
//
// Every checksum-valid frame marks the link alive. The LivenessTracker
// flips to LinkUp on the first such frame and back to LinkDown when no
// verified frame arrives within the liveness timeout, invoking any
// registered state handlers on each transition.
//
// # Concurrency
//
// A Decoder is single-threaded by design: it mirrors the cooperative
// poll loop of the device firmware. Feed it from one goroutine only.
// The LivenessTracker is safe for concurrent observation.
package link
