//go:build zstd

package codexfs

import "github.com/klauspost/compress/zstd"

func init() {
	RegisterCodec(CodecZstd, zstdCompress, zstdDecompress)
}

func zstdCompress(src []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(src, nil), nil
}

func zstdDecompress(src []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(src, nil)
}
