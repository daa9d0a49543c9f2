package compress

import (
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecs(t *testing.T) {
	content := []byte(`{"ops":[{"insert":"` + strings.Repeat("Hello (source) ⟦cite:c1⟧ ", 50) + `\n"}]}`)

	for _, name := range []string{"", NameNop, NameGZip, NameBrotli, NameLZ4} {
		t.Run(name, func(t *testing.T) {
			codec, err := ByName(name)
			require.NoError(t, err)

			encoded, err := codec.Encode(content)
			require.NoError(t, err)
			if name != "" && name != NameNop {
				assert.Less(t, len(encoded), len(content))
			}

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, content, decoded)
		})
	}

	_, err := ByName("zstd")
	assert.Error(t, err)
}

func TestGZip_Concurrent(t *testing.T) {
	codec := NewGZip(DefaultGZipLevel)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := []byte(strings.Repeat(strconv.Itoa(i), 200))
			encoded, err := codec.Encode(content)
			assert.NoError(t, err)
			decoded, err := codec.Decode(encoded)
			assert.NoError(t, err)
			assert.Equal(t, content, decoded)
		}(i)
	}
	wg.Wait()

	_, err := codec.Decode([]byte("not gzip"))
	assert.Error(t, err)
}
