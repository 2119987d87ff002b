// Package main serves the depth quality filter models as a Viam module.
package main

import (
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/module"
	"go.viam.com/rdk/resource"

	"github.com/viam-modules/depth-quality-filter/qualitycam"
	"github.com/viam-modules/depth-quality-filter/qualitystats"
)

func main() {
	module.ModularMain(
		resource.APIModel{camera.API, qualitycam.Model},
		resource.APIModel{sensor.API, qualitystats.Model},
	)
}
