//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the testbed binary into bin/.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-testbed", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Packs the testbed assets into a zip archive that can be mounted through
// the assets.archives setting.
func (Build) Pack() error {
	if _, err := executeCmd("zip", withArgs("-r", "../../bin/testbed-assets.zip", "."), withDir("testbed/assets"), withStream()); err != nil {
		return err
	}
	return nil
}
