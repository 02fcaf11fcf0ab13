// Copyright 2026 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("metadata response body")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got, err := ReadFrame(&buf, MaxResponseBytes)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: %q", got)
	}
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, 64)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := ReadFrame(&buf, 16); err == nil {
		t.Fatalf("expected oversize error")
	}
}

func TestReadFrameRejectsNegativeLength(t *testing.T) {
	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], 0x80000001)
	if _, err := ReadFrame(bytes.NewReader(lengthBuf[:]), MaxResponseBytes); err == nil {
		t.Fatalf("expected negative length error")
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, int32(10)); err != nil {
		t.Fatalf("write length: %v", err)
	}
	buf.Write([]byte("short"))
	if _, err := ReadFrame(&buf, MaxResponseBytes); err == nil {
		t.Fatalf("expected short read error")
	}
}

func TestSplitResponse(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x2a, 0xde, 0xad}
	correlation, body, err := SplitResponse(payload)
	if err != nil {
		t.Fatalf("SplitResponse: %v", err)
	}
	if correlation != 42 {
		t.Fatalf("expected correlation 42, got %d", correlation)
	}
	if !bytes.Equal(body, []byte{0xde, 0xad}) {
		t.Fatalf("unexpected body: %x", body)
	}

	if _, _, err := SplitResponse([]byte{0x00}); err == nil {
		t.Fatalf("expected error for short frame")
	}
}
