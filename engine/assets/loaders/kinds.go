// Package loaders provides the asset kinds the engine ships with.
package loaders

import (
	"errors"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

var (
	BlobAssetID       = core.TypeIDFromName("anima.BlobAsset")
	ImageAssetID      = core.TypeIDFromName("anima.ImageAsset")
	FontAssetID       = core.TypeIDFromName("anima.FontAsset")
	BitmapFontAssetID = core.TypeIDFromName("anima.BitmapFontAsset")
	MaterialAssetID   = core.TypeIDFromName("anima.MaterialAsset")
)

// ErrNoFilesystemPath is returned by importers that can only read sources
// backed by a file on disk.
var ErrNoFilesystemPath = errors.New("source is not backed by a file on disk")

// Kinds returns the descriptors of every builtin asset kind.
func Kinds() []*assets.AssetKindDescriptor {
	return []*assets.AssetKindDescriptor{
		assets.NewAssetKind(BlobAssetID, "Blob", importBlob, processBlob, ".bin", ".spv"),
		assets.NewAssetKind(ImageAssetID, "Image", importImage, processImage, ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"),
		assets.NewAssetKind(FontAssetID, "Font", importFont, processFont, ".ttf", ".otf", ".ttc"),
		assets.NewAssetKind(BitmapFontAssetID, "BitmapFont", importBitmapFont, processBitmapFont, ".fnt"),
		assets.NewAssetKind(MaterialAssetID, "Material", importMaterial, processMaterial, ".amt"),
	}
}

// Register adds the builtin kinds to reg.
func Register(reg *assets.Registry) error {
	for _, k := range Kinds() {
		if err := reg.Register(k); err != nil {
			return err
		}
	}
	return nil
}
