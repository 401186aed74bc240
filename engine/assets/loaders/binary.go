package loaders

import (
	"io"

	"github.com/spaghettifunk/anima-assets/engine/assets"
)

// BlobAsset is an opaque binary source such as a SPIR-V shader module.
type BlobAsset struct {
	Bytes []byte
	// Words is the little endian uint32 view of Bytes; a trailing partial
	// word is dropped.
	Words []uint32
}

func (b *BlobAsset) Size() int {
	return len(b.Bytes)
}

func importBlob(src *assets.Source) ([]byte, error) {
	return io.ReadAll(src)
}

func processBlob(b []byte) (*BlobAsset, error) {
	return &BlobAsset{
		Bytes: b,
		Words: bytesToBytecode(b),
	}, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	return byteCode
}
