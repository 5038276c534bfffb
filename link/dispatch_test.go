package link

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLabels(t *testing.T) {
	tests := []struct {
		name     string
		payload  []byte
		expected [MaxLabels]string
	}{
		{
			"empty payload",
			nil,
			[MaxLabels]string{},
		},
		{
			"single label",
			[]byte{4, 'p', 'l', 'a', 'y'},
			[MaxLabels]string{"play"},
		},
		{
			"full set",
			[]byte{1, 'a', 1, 'b', 1, 'c', 1, 'd'},
			[MaxLabels]string{"a", "b", "c", "d"},
		},
		{
			"empty label slot",
			[]byte{1, 'a', 0, 1, 'c'},
			[MaxLabels]string{"a", "", "c"},
		},
		{
			"third record overruns payload",
			[]byte{1, 'a', 1, 'b', 9, 'x', 'y'},
			[MaxLabels]string{"a", "b", "", ""},
		},
		{
			"first record overruns payload",
			[]byte{5, 'a', 'b'},
			[MaxLabels]string{},
		},
		{
			"excess records ignored",
			[]byte{1, 'a', 1, 'b', 1, 'c', 1, 'd', 1, 'e'},
			[MaxLabels]string{"a", "b", "c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeLabels(tt.payload))
		})
	}
}

func TestDecodeLabels_Truncation(t *testing.T) {
	long := strings.Repeat("x", MaxLabelLen+10)
	payload := append([]byte{byte(len(long))}, long...)
	payload = append(payload, 2, 'o', 'k')

	labels := DecodeLabels(payload)

	assert.Equal(t, strings.Repeat("x", MaxLabelLen), labels[0])
	// Truncation consumes the full declared length, so the next record
	// still decodes from the right offset.
	assert.Equal(t, "ok", labels[1])
}

func TestEncodeLabels(t *testing.T) {
	payload, err := EncodeLabels([]string{"up", "down"})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 'u', 'p', 4, 'd', 'o', 'w', 'n'}, payload)

	// Round trip through the decoder's view.
	assert.Equal(t, [MaxLabels]string{"up", "down", "", ""}, DecodeLabels(payload))
}

func TestEncodeLabels_Errors(t *testing.T) {
	_, err := EncodeLabels([]string{"a", "b", "c", "d", "e"})
	assert.ErrorIs(t, err, ErrTooManyLabels)

	_, err = EncodeLabels([]string{strings.Repeat("x", maxLabelEncodeLen+1)})
	assert.ErrorIs(t, err, ErrLabelTooLong)
}

func TestEncodeLabels_Empty(t *testing.T) {
	payload, err := EncodeLabels(nil)
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestDecodeLEDs(t *testing.T) {
	tests := []struct {
		name     string
		payload  []byte
		expected []LED
	}{
		{
			"single record",
			[]byte{0, 0xFF, 0x80, 0x00},
			[]LED{{Index: 0, R: 0xFF, G: 0x80, B: 0x00}},
		},
		{
			"multiple records",
			[]byte{0, 1, 2, 3, 7, 4, 5, 6},
			[]LED{{0, 1, 2, 3}, {7, 4, 5, 6}},
		},
		{
			"trailing partial record ignored",
			[]byte{0, 1, 2, 3, 9, 9},
			[]LED{{0, 1, 2, 3}},
		},
		{
			"payload shorter than one record",
			[]byte{1, 2},
			[]LED{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeLEDs(tt.payload))
		})
	}
}

func TestEncodeLEDs_RoundTrip(t *testing.T) {
	leds := []LED{{0, 0xFF, 0x00, 0x00}, {3, 0x00, 0x00, 0xFF}}

	payload := EncodeLEDs(leds)
	assert.Equal(t, []byte{0, 0xFF, 0, 0, 3, 0, 0, 0xFF}, payload)
	assert.Equal(t, leds, DecodeLEDs(payload))
}

func TestDispatch_ShortPayloadsDropped(t *testing.T) {
	rec := &recorder{}
	dec, _ := newTestDecoder(t, rec)

	// A button frame needs id and state; a heartbeat needs the status
	// byte. Shorter payloads are dropped at dispatch, not errored.
	_, _ = dec.Write(mustEncode(t, MsgButton, []byte{0x02}))
	_, _ = dec.Write(mustEncode(t, MsgHeartbeat, nil))

	assert.Empty(t, rec.buttons)
	assert.Empty(t, rec.heartbeats)

	// The frames themselves were valid and counted.
	assert.Equal(t, uint64(2), dec.GetMetrics().FrameRecvCount.Load())
	assert.True(t, dec.Connected())
}

func TestDispatch_ButtonRelease(t *testing.T) {
	rec := &recorder{}
	dec, _ := newTestDecoder(t, rec)

	_, _ = dec.Write(mustEncode(t, MsgButton, []byte{0x03, 0x00}))
	// Any nonzero state byte means pressed.
	_, _ = dec.Write(mustEncode(t, MsgButton, []byte{0x03, 0x7F}))

	assert.Equal(t, []buttonEvt{
		{id: 3, pressed: false},
		{id: 3, pressed: true},
	}, rec.buttons)
}
