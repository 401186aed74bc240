package loaders

import (
	"fmt"
	"io"

	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/spaghettifunk/anima-assets/engine/assets"
)

// FontFace describes one face of a font collection.
type FontFace struct {
	Family     string
	Subfamily  string
	Glyphs     int
	UnitsPerEm int
}

// FontAsset is a parsed TrueType or OpenType font (or collection). The
// collection is kept so faces can be rasterised at any size later.
type FontAsset struct {
	Faces      []FontFace
	Collection *sfnt.Collection
}

// Face returns the index of the face with the given family and subfamily.
func (f *FontAsset) Face(family, subfamily string) (int, bool) {
	for i, face := range f.Faces {
		if face.Family == family && (subfamily == "" || face.Subfamily == subfamily) {
			return i, true
		}
	}
	return 0, false
}

func importFont(src *assets.Source) (*sfnt.Collection, error) {
	fontBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return opentype.ParseCollection(fontBytes)
}

func processFont(c *sfnt.Collection) (*FontAsset, error) {
	out := &FontAsset{
		Faces:      make([]FontFace, 0, c.NumFonts()),
		Collection: c,
	}
	var buf sfnt.Buffer
	for i := 0; i < c.NumFonts(); i++ {
		f, err := c.Font(i)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		family, err := f.Name(&buf, sfnt.NameIDFamily)
		if err != nil {
			return nil, fmt.Errorf("face %d has no family name: %w", i, err)
		}
		// Subfamily is optional.
		subfamily, _ := f.Name(&buf, sfnt.NameIDSubfamily)

		out.Faces = append(out.Faces, FontFace{
			Family:     family,
			Subfamily:  subfamily,
			Glyphs:     f.NumGlyphs(),
			UnitsPerEm: int(f.UnitsPerEm()),
		})
	}
	return out, nil
}
