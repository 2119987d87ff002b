// Package qualitystats registers a sensor model that republishes a depth
// quality filter camera's session statistics as readings, so dashboards and
// data capture can track acceptance rates without touching the camera API.
package qualitystats

import (
	"context"

	"github.com/pkg/errors"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
)

// Model is the sensor model this package registers.
var Model = resource.NewModel("viam", "depth-quality-filter", "stats")

func init() {
	resource.RegisterComponent(
		sensor.API,
		Model,
		resource.Registration[sensor.Sensor, *Config]{
			Constructor: newStatsSensor,
		})
}

// Config names the depth quality filter camera to report on.
type Config struct {
	Camera string `json:"camera"`
}

// Validate returns the filter camera as a required dependency.
func (conf *Config) Validate(path string) ([]string, []string, error) {
	if conf.Camera == "" {
		return nil, nil, resource.NewConfigValidationFieldRequiredError(path, "camera")
	}
	return []string{conf.Camera}, nil, nil
}

type statsSensor struct {
	resource.Named
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	camera camera.Camera
	logger logging.Logger
}

func newStatsSensor(
	ctx context.Context,
	deps resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (sensor.Sensor, error) {
	newConf, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}
	cam, err := camera.FromProvider(deps, newConf.Camera)
	if err != nil {
		return nil, errors.Wrapf(err, "no filter camera %q", newConf.Camera)
	}
	return &statsSensor{
		Named:  conf.ResourceName().AsNamed(),
		camera: cam,
		logger: logger,
	}, nil
}

// Readings reports the current session statistics of the filter camera.
func (s *statsSensor) Readings(ctx context.Context, extra map[string]interface{}) (map[string]interface{}, error) {
	return s.camera.DoCommand(ctx, map[string]interface{}{"command": "stats"})
}

// DoCommand forwards to the filter camera, so session controls like
// restart_session work from either resource.
func (s *statsSensor) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	return s.camera.DoCommand(ctx, cmd)
}
