package gallery

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/face-attendance/internal/embedding"
)

// Binary gallery format, little-endian:
//
//	magic   [4]byte "FGAL"
//	version uint8
//	count   uint32  number of vectors
//	dim     uint32  vector length (0 when count is 0)
//	payload count*dim float32
var galleryMagic = [4]byte{'F', 'G', 'A', 'L'}

const codecVersion = 1

const headerSize = 4 + 1 + 4 + 4

var errCorrupt = errors.New("corrupt gallery payload")

// Encode serializes a vector sequence. All vectors must share the same
// length; a mismatch is reported as a dimension error.
func Encode(vectors [][]float32) ([]byte, error) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if err := embedding.CheckDimension(dim, len(v)); err != nil {
			return nil, err
		}
	}

	buf := make([]byte, headerSize, headerSize+len(vectors)*dim*4)
	copy(buf[0:4], galleryMagic[:])
	buf[4] = codecVersion
	binary.LittleEndian.PutUint32(buf[5:9], uint32(len(vectors)))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(dim))

	var scratch [4]byte
	for _, v := range vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(f))
			buf = append(buf, scratch[:]...)
		}
	}
	return buf, nil
}

// Decode parses a serialized gallery back into its vector sequence.
func Decode(data []byte) ([][]float32, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header (%d bytes)", errCorrupt, len(data))
	}
	if [4]byte(data[0:4]) != galleryMagic {
		return nil, fmt.Errorf("%w: bad magic", errCorrupt)
	}
	if data[4] != codecVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", errCorrupt, data[4])
	}

	count := binary.LittleEndian.Uint32(data[5:9])
	dim := binary.LittleEndian.Uint32(data[9:13])

	expected := headerSize + int(count)*int(dim)*4
	if len(data) != expected {
		return nil, fmt.Errorf("%w: expected %d bytes, have %d", errCorrupt, expected, len(data))
	}

	vectors := make([][]float32, count)
	off := headerSize
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = vec
	}
	return vectors, nil
}
