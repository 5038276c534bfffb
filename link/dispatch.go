package link

import (
	"time"
)

// MaxLabels is the number of button label slots on the device.
const MaxLabels = 4

// MaxLabelLen is the maximum number of visible characters per label;
// longer labels are truncated at decode.
const MaxLabelLen = 31

// maxLabelEncodeLen is the longest label text a one-byte length prefix
// can describe.
const maxLabelEncodeLen = 255

// ledRecordSize is the wire size of one LED record: index, R, G, B.
const ledRecordSize = 4

// LED is a single LED color assignment from a set-leds payload.
type LED struct {
	Index byte
	R     byte
	G     byte
	B     byte
}

// Handler capability interfaces, one per message type. The owning
// application supplies the capabilities it cares about at Decoder
// construction; messages without a registered capability are dropped
// silently. All capabilities are invoked synchronously from the
// decoder's polling context.
type (
	// TextHandler receives display or status text.
	TextHandler interface {
		HandleText(text string)
	}

	// LEDHandler receives decoded LED color assignments.
	LEDHandler interface {
		HandleLEDs(leds []LED)
	}

	// LabelsHandler receives the button label slots. Slots without a
	// decoded record are empty strings.
	LabelsHandler interface {
		HandleLabels(labels [MaxLabels]string)
	}

	// ClearHandler receives display clear requests.
	ClearHandler interface {
		HandleClear()
	}

	// ButtonHandler receives button press and release events.
	ButtonHandler interface {
		HandleButton(id byte, pressed bool)
	}

	// HeartbeatHandler receives the device status byte of a heartbeat.
	HeartbeatHandler interface {
		HandleHeartbeat(status byte)
	}
)

// Function adapters for the handler capabilities.
type (
	// TextFunc adapts a function to the TextHandler interface.
	TextFunc func(text string)

	// LEDFunc adapts a function to the LEDHandler interface.
	LEDFunc func(leds []LED)

	// LabelsFunc adapts a function to the LabelsHandler interface.
	LabelsFunc func(labels [MaxLabels]string)

	// ClearFunc adapts a function to the ClearHandler interface.
	ClearFunc func()

	// ButtonFunc adapts a function to the ButtonHandler interface.
	ButtonFunc func(id byte, pressed bool)

	// HeartbeatFunc adapts a function to the HeartbeatHandler interface.
	HeartbeatFunc func(status byte)
)

func (f TextFunc) HandleText(text string)                { f(text) }
func (f LEDFunc) HandleLEDs(leds []LED)                  { f(leds) }
func (f LabelsFunc) HandleLabels(labels [MaxLabels]string) { f(labels) }
func (f ClearFunc) HandleClear()                         { f() }
func (f ButtonFunc) HandleButton(id byte, pressed bool)  { f(id, pressed) }
func (f HeartbeatFunc) HandleHeartbeat(status byte)      { f(status) }

// Handlers is the set of capabilities a decoder dispatches to.
// Any field may be nil.
type Handlers struct {
	// DisplayText receives MsgDisplayText payloads.
	DisplayText TextHandler
	// Status receives MsgStatus payloads.
	Status TextHandler
	// LEDs receives decoded MsgSetLEDs records.
	LEDs LEDHandler
	// Labels receives decoded MsgSetLabels slots.
	Labels LabelsHandler
	// Clear receives MsgClear requests.
	Clear ClearHandler
	// Button receives MsgButton events.
	Button ButtonHandler
	// Heartbeat receives MsgHeartbeat status bytes.
	Heartbeat HeartbeatHandler
}

// dispatch routes a verified body to the registered capability for its
// type byte. The body has already passed the checksum; dispatch never
// sees an unverified frame.
//
// Any verified frame marks the link alive, including those with an
// unrecognized type or no registered capability.
func (d *Decoder) dispatch(body []byte, now time.Time) {
	d.liveness.MarkAlive(now)

	typ := MsgType(body[0])
	payload := body[1:]

	switch typ {
	case MsgDisplayText:
		if d.handlers.DisplayText != nil && len(payload) > 0 {
			d.handlers.DisplayText.HandleText(string(payload))
		}

	case MsgStatus:
		if d.handlers.Status != nil && len(payload) > 0 {
			d.handlers.Status.HandleText(string(payload))
		}

	case MsgSetLEDs:
		if d.handlers.LEDs != nil && len(payload) > 0 {
			d.handlers.LEDs.HandleLEDs(DecodeLEDs(payload))
		}

	case MsgClear:
		if d.handlers.Clear != nil {
			d.handlers.Clear.HandleClear()
		}

	case MsgSetLabels:
		if d.handlers.Labels != nil && len(payload) > 0 {
			d.handlers.Labels.HandleLabels(DecodeLabels(payload))
		}

	case MsgButton:
		if d.handlers.Button != nil && len(payload) >= 2 {
			d.handlers.Button.HandleButton(payload[0], payload[1] != 0)
		}

	case MsgHeartbeat:
		if d.handlers.Heartbeat != nil && len(payload) >= 1 {
			d.handlers.Heartbeat.HandleHeartbeat(payload[0])
		}

	default:
		d.logger.Debug("link: unknown message type, dropped", "type", byte(typ), "payloadLen", len(payload))
		d.metrics.incUnknownTypeCount()
	}
}

// DecodeLabels decodes a set-labels payload: an ordered sequence of up
// to MaxLabels records, each [len(1)][text(len)], consumed left to
// right. Individual labels longer than MaxLabelLen are truncated. The
// scan stops early, without signaling an error, if a record's declared
// length would read past the payload end; remaining slots stay empty.
func DecodeLabels(payload []byte) [MaxLabels]string {
	var labels [MaxLabels]string

	pos := 0
	for i := 0; i < MaxLabels && pos < len(payload); i++ {
		n := int(payload[pos])
		pos++

		if pos+n > len(payload) {
			break
		}

		text := payload[pos : pos+n]
		if len(text) > MaxLabelLen {
			text = text[:MaxLabelLen]
		}
		labels[i] = string(text)

		pos += n
	}

	return labels
}

// EncodeLabels encodes up to MaxLabels label texts into the set-labels
// payload sub-encoding.
func EncodeLabels(labels []string) ([]byte, error) {
	if len(labels) > MaxLabels {
		return nil, ErrTooManyLabels
	}

	size := 0
	for _, label := range labels {
		if len(label) > maxLabelEncodeLen {
			return nil, ErrLabelTooLong
		}
		size += 1 + len(label)
	}

	payload := make([]byte, 0, size)
	for _, label := range labels {
		payload = append(payload, byte(len(label)))
		payload = append(payload, label...)
	}

	return payload, nil
}

// DecodeLEDs decodes a set-leds payload into LED records. A trailing
// partial record is ignored.
func DecodeLEDs(payload []byte) []LED {
	count := len(payload) / ledRecordSize
	leds := make([]LED, count)

	for i := range leds {
		rec := payload[i*ledRecordSize:]
		leds[i] = LED{Index: rec[0], R: rec[1], G: rec[2], B: rec[3]}
	}

	return leds
}

// EncodeLEDs encodes LED records into the set-leds payload layout.
func EncodeLEDs(leds []LED) []byte {
	payload := make([]byte, 0, len(leds)*ledRecordSize)
	for _, led := range leds {
		payload = append(payload, led.Index, led.R, led.G, led.B)
	}

	return payload
}
