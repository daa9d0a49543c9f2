package compress

import (
	"bytes"
	"compress/gzip"
	"sync"
)

const DefaultGZipLevel = gzip.DefaultCompression

var gzipDefault = NewGZip(DefaultGZipLevel)

// GZip reuses writers across calls; a GZip is safe for concurrent use.
type GZip struct {
	level   int
	writers sync.Pool
}

// NewGZip returns a gzip codec at level. An invalid level falls back to
// gzip.DefaultCompression.
func NewGZip(level int) *GZip {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return &GZip{level: level}
}

func (g *GZip) Name() string {
	return NameGZip
}

func (g *GZip) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, ok := g.writers.Get().(*gzip.Writer)
	if ok {
		w.Reset(&buf)
	} else {
		var err error
		if w, err = gzip.NewWriterLevel(&buf, g.level); err != nil {
			return nil, err
		}
	}
	defer g.writers.Put(w)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *GZip) Decode(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return readAll(gr)
}
