package base

import (
	"bytes"
	"net"
	"testing"
)

// frameRoundTrip writes a frame into one end of a pipe and reads it back
// from the other end using the provided read buffer
func frameRoundTrip(t *testing.T, requestID uint64, payload []byte, buf []byte) (uint64, []byte) {
	t.Helper()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- writeFrame(client, requestID, payload)
	}()

	gotID, gotData, err := readFrame(server, buf)
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Failed to write frame: %v", err)
	}

	return gotID, gotData
}

func TestFrameRoundTrip(t *testing.T) {
	testCases := []struct {
		name      string
		requestID uint64
		payload   []byte
	}{
		{name: "Empty payload", requestID: 1, payload: []byte{}},
		{name: "Small payload", requestID: 42, payload: []byte(`{"endpoint":"ping"}`)},
		{name: "Binary payload", requestID: 7, payload: []byte{0x00, 0xff, 0x13, 0x37}},
		{name: "Large payload", requestID: 1 << 40, payload: bytes.Repeat([]byte("x"), 256*1024)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotID, gotData := frameRoundTrip(t, tc.requestID, tc.payload, nil)

			if gotID != tc.requestID {
				t.Errorf("Request ID mismatch: expected %d, got %d", tc.requestID, gotID)
			}
			if !bytes.Equal(gotData, tc.payload) {
				t.Errorf("Payload mismatch: expected %d bytes, got %d bytes", len(tc.payload), len(gotData))
			}
		})
	}
}

// TestFrameReadWithSmallBuffer tests that a payload larger than the provided
// buffer is still read correctly (the reader grows a temporary buffer)
func TestFrameReadWithSmallBuffer(t *testing.T) {
	payload := bytes.Repeat([]byte("payload"), 1024)
	buf := make([]byte, 64) // much smaller than the payload

	gotID, gotData := frameRoundTrip(t, 3, payload, buf)

	if gotID != 3 {
		t.Errorf("Request ID mismatch: expected 3, got %d", gotID)
	}
	if !bytes.Equal(gotData, payload) {
		t.Errorf("Payload mismatch after buffer growth")
	}
}

// TestFrameLengthLimit tests that an implausible length announcement is
// rejected instead of triggering a huge allocation
func TestFrameLengthLimit(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	// Hand-craft a header announcing a payload beyond the limit
	header := make([]byte, headerSize)
	header[8] = 0xff
	header[9] = 0xff
	header[10] = 0xff
	header[11] = 0xff

	go func() {
		client.Write(header)
	}()

	_, _, err := readFrame(server, nil)
	if err == nil {
		t.Fatal("Expected error for oversized frame but got none")
	}
}
