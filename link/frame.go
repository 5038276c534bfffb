package link

import (
	"encoding/binary"
	"fmt"
)

// StartByte marks the beginning of a frame on the wire.
const StartByte byte = 0xAA

// MaxBodyLen is the maximum body size (type byte + payload) of a frame.
const MaxBodyLen = 512

// MaxPayloadLen is the maximum payload size of a single message.
const MaxPayloadLen = MaxBodyLen - 1

// lenFieldSize is the size of the big-endian body length field.
const lenFieldSize = 2

// checksumSize is the size of the trailing checksum in bytes.
const checksumSize = 1

// frameOverhead is the number of wire bytes surrounding the body.
const frameOverhead = 1 + lenFieldSize + checksumSize

// MaxFrameLen is the maximum size of a complete frame on the wire.
const MaxFrameLen = frameOverhead + MaxBodyLen

// MsgType identifies the message carried in a frame body.
type MsgType byte

// Message type codes.
const (
	// MsgDisplayText carries UTF-8 text for the main display (host→device).
	MsgDisplayText MsgType = 0x01
	// MsgButton carries a button event: [id, pressed(0/1)] (device→host).
	MsgButton MsgType = 0x02
	// MsgSetLEDs carries repeating [index, R, G, B] records (host→device).
	MsgSetLEDs MsgType = 0x03
	// MsgStatus carries status-line text (host→device).
	MsgStatus MsgType = 0x04
	// MsgClear requests a display clear; the payload is empty (host→device).
	MsgClear MsgType = 0x05
	// MsgSetLabels carries up to 4 length-prefixed button labels (host→device).
	MsgSetLabels MsgType = 0x06
	// MsgHeartbeat carries a single device status byte (device→host).
	MsgHeartbeat MsgType = 0x07
)

// String returns the message type name.
func (t MsgType) String() string {
	switch t {
	case MsgDisplayText:
		return "display-text"
	case MsgButton:
		return "button"
	case MsgSetLEDs:
		return "set-leds"
	case MsgStatus:
		return "status"
	case MsgClear:
		return "clear"
	case MsgSetLabels:
		return "set-labels"
	case MsgHeartbeat:
		return "heartbeat"
	default:
		return fmt.Sprintf("unknown(0x%02X)", byte(t))
	}
}

// Checksum computes the 8-bit integrity checksum over the frame body
// (type byte + payload): the arithmetic sum of all unsigned byte
// values, truncated to 8 bits. Both directions of the link use this
// identical function.
func Checksum(body []byte) byte {
	var sum uint32
	for _, v := range body {
		sum += uint32(v)
	}

	return byte(sum)
}

// checksumParts computes the body checksum without materializing the
// body, for encode paths that write the type byte and payload separately.
func checksumParts(typ MsgType, payload []byte) byte {
	sum := uint32(typ)
	for _, v := range payload {
		sum += uint32(v)
	}

	return byte(sum)
}

// EncodeFrame serializes a message into its wire format:
//
//	[START][BODY_LEN(2, big-endian)][TYPE][PAYLOAD][CHECKSUM]
//
// BODY_LEN is len(payload)+1. Returns ErrPayloadTooLarge if the payload
// exceeds MaxPayloadLen.
func EncodeFrame(typ MsgType, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: got %d bytes, max %d", ErrPayloadTooLarge, len(payload), MaxPayloadLen)
	}

	bodyLen := len(payload) + 1
	buf := make([]byte, frameOverhead+bodyLen)

	buf[0] = StartByte
	binary.BigEndian.PutUint16(buf[1:3], uint16(bodyLen)) //nolint:gosec // bodyLen <= MaxBodyLen
	buf[3] = byte(typ)
	copy(buf[4:], payload)
	buf[len(buf)-1] = checksumParts(typ, payload)

	return buf, nil
}

// AppendFrame appends the wire encoding of a message to dst and returns
// the extended slice, avoiding an allocation when dst has capacity.
// Returns ErrPayloadTooLarge if the payload exceeds MaxPayloadLen.
func AppendFrame(dst []byte, typ MsgType, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: got %d bytes, max %d", ErrPayloadTooLarge, len(payload), MaxPayloadLen)
	}

	bodyLen := len(payload) + 1
	dst = append(dst, StartByte, byte(bodyLen>>8), byte(bodyLen))
	dst = append(dst, byte(typ))
	dst = append(dst, payload...)
	dst = append(dst, checksumParts(typ, payload))

	return dst, nil
}
