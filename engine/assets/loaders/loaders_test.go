package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

func init() {
	core.SetLogOutput(io.Discard)
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	// (1, 1) stays fully transparent.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const heroMaterial = `
# hero material
name = hero
shader = Builtin.MaterialShader
diffuse_colour = 0.5 0.5 1.0 1.0
shininess = 32.0
diffuse_map_name = textures/hero.png
autorelease = true
`

func newLoader(t *testing.T, files fstest.MapFS) *assets.Loader {
	t.Helper()
	reg := assets.NewRegistry()
	require.NoError(t, Register(reg))

	js, err := systems.NewJobSystem(2, 8)
	require.NoError(t, err)
	t.Cleanup(func() { js.Shutdown() })

	l, err := assets.NewLoader(reg, assets.NewFSResolver(files), js)
	require.NoError(t, err)
	return l
}

func waitFor(t *testing.T, l *assets.Loader, handles ...assets.UntypedHandle) {
	t.Helper()
	require.Eventually(t, func() bool {
		l.Update()
		return l.Progress(handles...).Complete()
	}, 5*time.Second, 5*time.Millisecond)
}

func load[T any](t *testing.T, l *assets.Loader, key string) (T, assets.Handle[T]) {
	t.Helper()
	h, err := l.LoadByKey(key)
	require.NoError(t, err)
	waitFor(t, l, h)

	typed, err := assets.Typed[T](h)
	require.NoError(t, err)
	require.NoError(t, l.Error(h))
	st, err := assets.StorageOf[T](l, h.TypeID())
	require.NoError(t, err)
	v, ok := st.Get(typed)
	require.True(t, ok)
	return v, typed
}

func TestBuiltinKinds(t *testing.T) {
	l := newLoader(t, fstest.MapFS{
		"shaders/basic.spv":    {Data: []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00, 0xff}},
		"textures/hero.png":    {Data: encodePNG(t)},
		"fonts/go.ttf":         {Data: goregular.TTF},
		"materials/hero.amt":   {Data: []byte(heroMaterial)},
		"materials/broken.amt": {Data: []byte("name = broken\n")},
		"fonts/title.fnt":      {Data: []byte("info face=\"Title\" size=32\n")},
	})

	t.Run("blob", func(t *testing.T) {
		blob, _ := load[*BlobAsset](t, l, "shaders/basic.spv")

		require.Equal(t, 9, blob.Size())
		require.Equal(t, []uint32{0x07230203, 0x00010000}, blob.Words)
	})

	t.Run("image", func(t *testing.T) {
		img, _ := load[*ImageAsset](t, l, "textures/hero.png")

		require.Equal(t, 2, img.Width)
		require.Equal(t, 2, img.Height)
		require.Equal(t, "png", img.Format)
		require.False(t, img.Opaque)
		require.Len(t, img.Pixels, 16)
		require.Equal(t, []uint8{255, 0, 0, 255}, img.Pixels[0:4])
		require.Equal(t, []uint8{0, 255, 0, 255}, img.Pixels[4:8])
		require.Equal(t, []uint8{0, 0, 0, 0}, img.Pixels[12:16])
	})

	t.Run("font", func(t *testing.T) {
		font, _ := load[*FontAsset](t, l, "fonts/go.ttf")

		require.Len(t, font.Faces, 1)
		require.Equal(t, "Go", font.Faces[0].Family)
		require.Equal(t, "Regular", font.Faces[0].Subfamily)
		require.Positive(t, font.Faces[0].Glyphs)
		require.Equal(t, 2048, font.Faces[0].UnitsPerEm)

		i, ok := font.Face("Go", "")
		require.True(t, ok)
		require.Zero(t, i)
		_, ok = font.Face("Comic Sans", "")
		require.False(t, ok)
	})

	t.Run("material", func(t *testing.T) {
		m, _ := load[*MaterialAsset](t, l, "materials/hero.amt")

		require.Equal(t, &MaterialAsset{
			Name:           "hero",
			ShaderName:     "Builtin.MaterialShader",
			DiffuseColour:  Colour{0.5, 0.5, 1, 1},
			Shininess:      32,
			DiffuseMapName: "textures/hero.png",
			AutoRelease:    true,
		}, m)
	})

	t.Run("material without shader fails in process", func(t *testing.T) {
		h, err := l.LoadByKey("materials/broken.amt")
		require.NoError(t, err)
		waitFor(t, l, h)

		var processErr *assets.ProcessError
		require.ErrorAs(t, l.Error(h), &processErr)
	})

	t.Run("bitmap fonts need a file on disk", func(t *testing.T) {
		h, err := l.LoadByKey("fonts/title.fnt")
		require.NoError(t, err)
		waitFor(t, l, h)

		require.ErrorIs(t, l.Error(h), ErrNoFilesystemPath)
	})
}

func TestRegister(t *testing.T) {
	reg := assets.NewRegistry()
	require.NoError(t, Register(reg))
	require.Len(t, reg.Kinds(), 5)

	id, err := reg.KindForKey("textures/Hero.JPEG")
	require.NoError(t, err)
	require.Equal(t, ImageAssetID, id)

	// A second registration brings new descriptors with the same ids.
	require.ErrorIs(t, Register(reg), assets.ErrDuplicateTypeID)
}

func TestImportMaterial(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing separator", body: "name hero\n"},
		{name: "short colour", body: "diffuse_colour = 1 1 1\n"},
		{name: "bad shininess", body: "shininess = shiny\n"},
		{name: "bad autorelease", body: "autorelease = maybe\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importMaterial(&assets.Source{Reader: strings.NewReader(tt.body), Key: "m.amt"})
			require.Error(t, err)
		})
	}

	t.Run("unknown keys are skipped", func(t *testing.T) {
		m, err := importMaterial(&assets.Source{Reader: strings.NewReader("name = a\nglow = 3\n"), Key: "m.amt"})
		require.NoError(t, err)
		require.Equal(t, "a", m.Name)
		require.Equal(t, Colour{1, 1, 1, 1}, m.DiffuseColour)
	})
}

func TestProcessMaterial(t *testing.T) {
	valid := func() *MaterialAsset {
		return &MaterialAsset{Name: "m", ShaderName: "s", DiffuseColour: Colour{1, 1, 1, 1}}
	}

	_, err := processMaterial(valid())
	require.NoError(t, err)

	m := valid()
	m.DiffuseColour[2] = 1.5
	_, err = processMaterial(m)
	require.Error(t, err)

	m = valid()
	m.Shininess = -1
	_, err = processMaterial(m)
	require.Error(t, err)

	m = valid()
	m.Name = ""
	_, err = processMaterial(m)
	require.Error(t, err)
}

func TestBitmapFontGlyph(t *testing.T) {
	f := &BitmapFontAsset{Glyphs: []FontGlyph{{Codepoint: 'A', Width: 10}, {Codepoint: 'B', Width: 11}, {Codepoint: 'Z', Width: 12}}}

	g, ok := f.Glyph('B')
	require.True(t, ok)
	require.Equal(t, uint16(11), g.Width)

	_, ok = f.Glyph('C')
	require.False(t, ok)
}
