package codexfs

import "fmt"

// ImageCodec names a whole-fragment compression algorithm. CodecMicroLZMA
// is the default codec and the only one Build/ReadFile's pipeline uses;
// other codecs registered via RegisterCodec are reachable through
// EncodeFragment/DecodeFragment but never chosen by the default build path.
type ImageCodec uint8

const (
	CodecMicroLZMA ImageCodec = iota
	CodecZstd
)

func (c ImageCodec) String() string {
	switch c {
	case CodecMicroLZMA:
		return "microlzma"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("ImageCodec(%d)", uint8(c))
	}
}

type codecHandler struct {
	compress   func([]byte) ([]byte, error)
	decompress func([]byte) ([]byte, error)
}

var codecRegistry = map[ImageCodec]codecHandler{
	CodecMicroLZMA: {compress: microLZMACompress, decompress: decodeMicroLZMAFragment},
}

// RegisterCodec installs a whole-block compress/decompress pair under id,
// typically from a build-tagged init() (see codec_zstd.go).
func RegisterCodec(id ImageCodec, compress, decompress func([]byte) ([]byte, error)) {
	codecRegistry[id] = codecHandler{compress: compress, decompress: decompress}
}

// EncodeFragment compresses src with the codec registered under id.
func EncodeFragment(id ImageCodec, src []byte) ([]byte, error) {
	h, ok := codecRegistry[id]
	if !ok {
		return nil, fmt.Errorf("%w: codec %s not registered", ErrCodec, id)
	}
	return h.compress(src)
}

// DecodeFragment decompresses a fragment previously produced by
// EncodeFragment under the same id.
func DecodeFragment(id ImageCodec, compressed []byte) ([]byte, error) {
	h, ok := codecRegistry[id]
	if !ok {
		return nil, fmt.Errorf("%w: codec %s not registered", ErrCodec, id)
	}
	return h.decompress(compressed)
}
