package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []Event {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	format := uint16(11542)
	return []Event{
		{
			Timestamp: ts, SessionID: "s-1", Direction: DirectionOut, Category: CategoryMessage,
			Endpoint: "urn:imei:1", RemoteAddr: "192.0.2.1:5684", Identity: "Identity[psk=dev1]",
			Message: &MessageEvent{Operation: "WRITE", Path: "/0/1", ContentFormat: &format, Summary: "Instance[id=1]"},
		},
		{
			Timestamp: ts.Add(time.Millisecond), SessionID: "s-1", Direction: DirectionIn, Category: CategoryMessage,
			Endpoint: "urn:imei:1", Message: &MessageEvent{Operation: "WRITE", Path: "/0/1", Code: "2.04"},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond), SessionID: "s-1", Direction: DirectionIn, Category: CategoryState,
			Endpoint: "urn:imei:1", StateChange: &StateChangeEvent{OldState: "AUTHORIZED", NewState: "FAILED", Reason: "REQUEST_FAILED"},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond), SessionID: "s-2", Direction: DirectionOut, Category: CategoryError,
			Endpoint: "urn:imei:2", Error: &ErrorEventData{Message: "timeout", Context: "DELETE /1"},
		},
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	for _, event := range sampleEvents() {
		data, err := EncodeEvent(event)
		require.NoError(t, err)

		decoded, err := DecodeEvent(data)
		require.NoError(t, err)

		assert.True(t, event.Timestamp.Equal(decoded.Timestamp), "nanosecond timestamp preserved")
		decoded.Timestamp = event.Timestamp
		assert.Equal(t, event, decoded)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	event := sampleEvents()[0]
	a, err := EncodeEvent(event)
	require.NoError(t, err)
	b, err := EncodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeEventErrors(t *testing.T) {
	_, err := DecodeEvent([]byte{0xff})
	assert.Error(t, err)

	// Map with a duplicated key.
	_, err = DecodeEvent([]byte{0xa2, 0x02, 0x61, 'a', 0x02, 0x61, 'b'})
	assert.Error(t, err)
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, event := range sampleEvents() {
		require.NoError(t, enc.Encode(event))
	}

	dec := NewDecoder(&buf)
	for _, want := range sampleEvents() {
		var got Event
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want.SessionID, got.SessionID)
		assert.Equal(t, want.Category, got.Category)
	}
}
