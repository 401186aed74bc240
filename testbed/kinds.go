package testbed

import (
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

var (
	EnergyBlastID = core.MustTypeID("a016abff-623d-48cf-a6e4-e76e069fe843")
	UILayoutID    = core.MustTypeID("d4adfc76-f5f4-40b0-8e28-8a51a12f5e46")
)

// EnergyBlast is the damage dealt by one energy blast.
type EnergyBlast struct {
	HPDamage uint32 `toml:"hp_damage" hcl:"hp_damage,optional"`
	MPDamage uint32 `toml:"mp_damage" hcl:"mp_damage,optional"`
}

// Widget is one element of a UI layout file.
type Widget struct {
	Kind   string  `toml:"kind" hcl:"kind,label"`
	ID     string  `toml:"id" hcl:"id,label"`
	Text   string  `toml:"text" hcl:"text,optional"`
	X      float32 `toml:"x" hcl:"x,optional"`
	Y      float32 `toml:"y" hcl:"y,optional"`
	Width  float32 `toml:"width" hcl:"width,optional"`
	Height float32 `toml:"height" hcl:"height,optional"`
}

type uiLayoutFile struct {
	Widgets []Widget `toml:"widget" hcl:"widget,block"`
}

// UILayout is a processed layout with widgets addressable by id.
type UILayout struct {
	Widgets []Widget
	byID    map[string]int
}

func (u *UILayout) Widget(id string) (Widget, bool) {
	i, ok := u.byID[id]
	if !ok {
		return Widget{}, false
	}
	return u.Widgets[i], true
}

func buildLayout(f uiLayoutFile) (*UILayout, error) {
	u := &UILayout{Widgets: f.Widgets, byID: make(map[string]int, len(f.Widgets))}
	for i, w := range f.Widgets {
		if _, dup := u.byID[w.ID]; dup {
			return nil, fmt.Errorf("duplicate widget id '%s'", w.ID)
		}
		if w.Width < 0 || w.Height < 0 {
			return nil, fmt.Errorf("widget '%s' has a negative size", w.ID)
		}
		u.byID[w.ID] = i
	}
	return u, nil
}

// Kinds returns the testbed asset kinds. The UI layout kind deliberately
// shares its display name with EnergyBlast; kinds are told apart by TypeID.
func Kinds() []*assets.AssetKindDescriptor {
	return []*assets.AssetKindDescriptor{
		assets.NewSerdeAssetKind[EnergyBlast](EnergyBlastID, "EnergyBlast", ".blast.toml"),
		assets.NewAssetKind(UILayoutID, "EnergyBlast", assets.SerdeImporter[uiLayoutFile](), buildLayout, ".hcl"),
	}
}
