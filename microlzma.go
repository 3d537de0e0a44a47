package codexfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// microLZMADictCap is the decoder's 8 MiB dictionary capacity.
// microLZMADecodeMem (16 MiB) is not passed to the decoder: Reader2Config
// takes only a dictionary capacity, so no separate memory limit applies.
const (
	microLZMADictCap   = 8 << 20
	microLZMADecodeMem = 16 << 20
)

// microLZMAPreset is a preset level of 6. The encoder does not use it:
// microLZMACompress runs with Writer2Config's default settings.
const microLZMAPreset = 6

// encodeMicroLZMABlock runs the MicroLZMA streaming control loop for one
// compressed data block: it feeds as much of src into
// a raw (headerless) LZMA2 stream as fits within blockSize bytes once
// finished, and reports exactly how many input bytes were consumed
// (total_in) alongside the compressed bytes produced (total_out).
//
// ulikunitz/xz/lzma's Writer2 has no partial-flush API that reports a
// meaningful total_in/total_out pair mid-stream, so "finish into a bounded
// buffer" is modeled as a deterministic binary search over the input
// prefix length: encode-to-completion is run
// at candidate prefix lengths until the largest prefix whose finished
// stream fits in blockSize is found. This reproduces the same externally
// observable contract (a full Finish each call, bounded output, total_in
// reported) without depending on internal encoder state.
func encodeMicroLZMABlock(src []byte, blockSize int) (compressed []byte, totalIn int, err error) {
	full, ferr := microLZMACompress(src)
	if ferr == nil && len(full) <= blockSize {
		return full, len(src), nil
	}

	lo, hi := 0, len(src)
	var best []byte
	for lo < hi {
		mid := (lo + hi + 1) / 2
		c, e := microLZMACompress(src[:mid])
		if e == nil && len(c) <= blockSize {
			lo = mid
			best = c
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return nil, 0, fmt.Errorf("%w: block size %d too small for any input", ErrCodec, blockSize)
	}
	if best == nil {
		best, err = microLZMACompress(src[:lo])
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCodec, err)
		}
	}
	return best, lo, nil
}

func microLZMACompress(src []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	cfg := lzma.Writer2Config{}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	w, err := cfg.NewWriter2(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

// decodeMicroLZMAFragment decodes one compressed fragment back into its
// full decompressed bytes, using a fresh decoder with an 8 MiB dictionary
// capacity; no memory limit is set.
func decodeMicroLZMAFragment(compressed []byte) ([]byte, error) {
	cfg := lzma.Reader2Config{
		DictCap: microLZMADictCap,
	}
	if err := cfg.Verify(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	r, err := cfg.NewReader2(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return out, nil
}
