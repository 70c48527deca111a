// Package memory provides sync.Pool-based reuse of the buffers and slices
// that the per-tick observation broadcast allocates many times a
// second, keeping the server loop's hot path allocation-light.
package memory

import (
	"bytes"
	"encoding/json"
	"sync"
)

// JSON buffer/encoder pools eliminate per-message allocations when
// encoding GameInfo frames for broadcast to many sessions per tick.
var (
	JSONBufferPool = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 4096))
		},
	}

	JSONEncoderPool = sync.Pool{
		New: func() interface{} {
			return json.NewEncoder(&bytes.Buffer{})
		},
	}
)

// BodySlicePool holds reusable []uint32 id slices. The world step builds
// its visible-body batches without drawing from it.
var BodySlicePool = sync.Pool{
	New: func() interface{} {
		return make([]uint32, 0, 64)
	},
}

// ByteSlicePool holds reusable byte slices for outbound messages; the
// observation send path copies each frame into a fresh slice instead.
var ByteSlicePool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 0, 2048)
	},
}

// GetJSONBuffer retrieves a pooled byte buffer for JSON operations.
// Buffer is reset and ready for use. Must call PutJSONBuffer when done.
func GetJSONBuffer() *bytes.Buffer {
	buf := JSONBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutJSONBuffer returns a byte buffer to the pool for reuse.
func PutJSONBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 16384 {
		return
	}
	JSONBufferPool.Put(buf)
}

// GetJSONEncoder returns a newly created JSON encoder bound to a pooled
// buffer; encoders are not taken from JSONEncoderPool.
func GetJSONEncoder() (*json.Encoder, *bytes.Buffer) {
	buf := GetJSONBuffer()
	encoder := json.NewEncoder(buf)
	return encoder, buf
}

// PutJSONEncoder returns a JSON encoder and its buffer to their pools.
func PutJSONEncoder(encoder *json.Encoder, buf *bytes.Buffer) {
	JSONEncoderPool.Put(encoder)
	PutJSONBuffer(buf)
}

// GetBodySlice retrieves a pooled uint32 slice for id batches.
func GetBodySlice() []uint32 {
	slice := BodySlicePool.Get().([]uint32)
	return slice[:0]
}

// PutBodySlice returns an id slice to the pool for reuse.
func PutBodySlice(slice []uint32) {
	if cap(slice) > 512 {
		return
	}
	BodySlicePool.Put(slice)
}

// GetByteSlice retrieves a pooled byte slice for outbound messages.
func GetByteSlice() []byte {
	slice := ByteSlicePool.Get().([]byte)
	return slice[:0]
}

// PutByteSlice returns a byte slice to the pool for reuse.
func PutByteSlice(slice []byte) {
	if cap(slice) > 8192 {
		return
	}
	ByteSlicePool.Put(slice)
}
