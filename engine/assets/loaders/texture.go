package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-assets/engine/assets"
)

// ImageAsset is a decoded texture in tightly packed 8-bit RGBA, ready for upload.
type ImageAsset struct {
	Width  int
	Height int
	Pixels []uint8
	// Opaque is false when any pixel has alpha below 255.
	Opaque bool
	// Format is the name of the codec the source was decoded with.
	Format string
}

type decodedImage struct {
	img    image.Image
	format string
}

func importImage(src *assets.Source) (decodedImage, error) {
	img, format, err := image.Decode(src)
	if err != nil {
		return decodedImage{}, err
	}
	return decodedImage{img: img, format: format}, nil
}

func processImage(d decodedImage) (*ImageAsset, error) {
	b := d.img.Bounds()
	rgba, ok := d.img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), d.img, b.Min, draw.Src)
	}
	return &ImageAsset{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: rgba.Pix,
		Opaque: rgba.Opaque(),
		Format: d.format,
	}, nil
}
