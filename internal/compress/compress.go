package compress

import (
	"errors"
	"fmt"
	"io"
)

// Compress encodes stored document and checkpoint content.
type Compress interface {
	// Name is stored next to the encoded data to pick the decoder later.
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

const (
	NameNop    = "nop"
	NameGZip   = "gzip"
	NameBrotli = "brotli"
	NameLZ4    = "lz4"
)

// MaxDecodedSize bounds the output of Decode.
const MaxDecodedSize = 64 << 20

var ErrTooLarge = errors.New("decoded content exceeds limit")

var (
	_ Compress = Nop{}
	_ Compress = (*GZip)(nil)
	_ Compress = Brotli{}
	_ Compress = LZ4{}
)

// ByName returns the codec stored in a row's compression column. An empty
// name is the uncompressed codec.
func ByName(name string) (Compress, error) {
	switch name {
	case "", NameNop:
		return Nop{}, nil
	case NameGZip:
		return gzipDefault, nil
	case NameBrotli:
		return NewBrotli(), nil
	case NameLZ4:
		return NewLZ4(), nil
	}
	return nil, fmt.Errorf("unknown compression %q", name)
}

// Nop stores content as is.
type Nop struct{}

func (Nop) Name() string { return NameNop }

func (Nop) Encode(data []byte) ([]byte, error) { return data, nil }

func (Nop) Decode(data []byte) ([]byte, error) {
	if len(data) > MaxDecodedSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// readAll drains r, failing once more than MaxDecodedSize bytes come out.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDecodedSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
