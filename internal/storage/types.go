package storage

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate indicates an insert collided with an existing row.
	ErrDuplicate = errors.New("duplicate resource")
)

// SerializeEmbedding encodes a float32 vector as little-endian bytes for
// BLOB storage. Returns nil for an empty vector.
func SerializeEmbedding(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DeserializeEmbedding decodes a little-endian float32 BLOB back into a
// vector. Returns nil for empty input and ErrInvalidInput for a length that
// is not a multiple of four.
func DeserializeEmbedding(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data)%4 != 0 {
		return nil, ErrInvalidInput
	}
	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return embedding, nil
}
