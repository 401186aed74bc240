package loaders

import (
	"cmp"
	"slices"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/anima-assets/engine/assets"
)

type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 rune
	Codepoint1 rune
	Amount     int16
}

type BitmapFontPage struct {
	ID   int8
	File string
}

// BitmapFontAsset is an AngelCode BMFont descriptor flattened for glyph lookup.
// Glyphs and kernings are sorted by codepoint.
type BitmapFontAsset struct {
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     []FontGlyph
	Kernings   []FontKerning
	Pages      []BitmapFontPage
}

// Glyph returns the glyph of codepoint r.
func (f *BitmapFontAsset) Glyph(r rune) (FontGlyph, bool) {
	i, ok := slices.BinarySearchFunc(f.Glyphs, r, func(g FontGlyph, r rune) int {
		return cmp.Compare(g.Codepoint, r)
	})
	if !ok {
		return FontGlyph{}, false
	}
	return f.Glyphs[i], true
}

// importBitmapFont needs a real path because the page sheets are loaded
// relative to the descriptor.
func importBitmapFont(src *assets.Source) (*bmfont.BitmapFont, error) {
	if src.Path == "" {
		return nil, ErrNoFilesystemPath
	}
	return bmfont.Load(src.Path)
}

func processBitmapFont(font *bmfont.BitmapFont) (*BitmapFontAsset, error) {
	desc := font.Descriptor
	out := &BitmapFontAsset{
		Face:       desc.Info.Face,
		Size:       uint32(desc.Info.Size),
		LineHeight: int32(desc.Common.LineHeight),
		Baseline:   int32(desc.Common.Base),
		AtlasSizeX: int32(desc.Common.ScaleW),
		AtlasSizeY: int32(desc.Common.ScaleH),
		Glyphs:     make([]FontGlyph, 0, len(desc.Chars)),
		Kernings:   make([]FontKerning, 0, len(desc.Kerning)),
		Pages:      make([]BitmapFontPage, 0, len(desc.Pages)),
	}

	for _, p := range desc.Pages {
		out.Pages = append(out.Pages, BitmapFontPage{ID: int8(p.ID), File: p.File})
	}
	for _, g := range desc.Chars {
		out.Glyphs = append(out.Glyphs, FontGlyph{
			Codepoint: rune(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}
	for p, k := range desc.Kerning {
		out.Kernings = append(out.Kernings, FontKerning{
			Codepoint0: rune(p.First),
			Codepoint1: rune(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	slices.SortFunc(out.Pages, func(a, b BitmapFontPage) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Glyphs, func(a, b FontGlyph) int { return cmp.Compare(a.Codepoint, b.Codepoint) })
	slices.SortFunc(out.Kernings, func(a, b FontKerning) int {
		if c := cmp.Compare(a.Codepoint0, b.Codepoint0); c != 0 {
			return c
		}
		return cmp.Compare(a.Codepoint1, b.Codepoint1)
	})
	return out, nil
}
