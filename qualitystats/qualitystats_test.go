package qualitystats

import (
	"context"
	"testing"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/rimage"
	"go.viam.com/test"

	"github.com/viam-modules/depth-quality-filter/internal/staticcamera"
	"github.com/viam-modules/depth-quality-filter/qualitycam"
)

func TestConfigValidate(t *testing.T) {
	var conf Config
	_, _, err := conf.Validate("attrs")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "camera")

	conf = Config{Camera: "filtered"}
	deps, optional, err := conf.Validate("attrs")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, deps, test.ShouldResemble, []string{"filtered"})
	test.That(t, optional, test.ShouldBeNil)
}

func TestMissingCamera(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	conf := resource.Config{
		Name:                "filter-stats",
		API:                 sensor.API,
		Model:               Model,
		ConvertedAttributes: &Config{Camera: "filtered"},
	}
	_, err := newStatsSensor(ctx, resource.Dependencies{}, conf, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "filtered")
}

func TestReadings(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	fake := staticcamera.New("filtered", rimage.NewEmptyDepthMap(4, 4))
	var gotCmd map[string]interface{}
	fake.DoFunc = func(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
		gotCmd = cmd
		return map[string]interface{}{
			"session_id":     "d7c2",
			"total_received": int64(7),
			"rejection_rate": 0.25,
		}, nil
	}

	deps := resource.Dependencies{camera.Named("filtered"): fake}
	conf := resource.Config{
		Name:                "filter-stats",
		API:                 sensor.API,
		Model:               Model,
		ConvertedAttributes: &Config{Camera: "filtered"},
	}
	s, err := newStatsSensor(ctx, deps, conf, logger)
	test.That(t, err, test.ShouldBeNil)

	readings, err := s.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotCmd["command"], test.ShouldEqual, "stats")
	test.That(t, readings["total_received"], test.ShouldEqual, int64(7))
	test.That(t, readings["rejection_rate"], test.ShouldEqual, 0.25)

	// arbitrary commands forward untouched
	out, err := s.DoCommand(ctx, map[string]interface{}{"command": "restart_session"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gotCmd["command"], test.ShouldEqual, "restart_session")
	test.That(t, out["session_id"], test.ShouldEqual, "d7c2")
}

// Chains the sensor onto a real filter camera watching a static source, the
// shape it runs in on a robot.
func TestReadingsEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	dm := rimage.NewEmptyDepthMap(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			dm.Set(x, y, 1200)
		}
	}
	src := staticcamera.New("src", dm)

	camReg, ok := resource.LookupRegistration(camera.API, qualitycam.Model)
	test.That(t, ok, test.ShouldBeTrue)
	filtered, err := camReg.Constructor(
		ctx,
		resource.Dependencies{src.Name(): src},
		resource.Config{
			Name:                "filtered",
			API:                 camera.API,
			Model:               qualitycam.Model,
			ConvertedAttributes: &qualitycam.Config{Source: "src"},
		},
		logger,
	)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, filtered.Close(ctx), test.ShouldBeNil)
	}()
	filteredCam, ok := filtered.(camera.Camera)
	test.That(t, ok, test.ShouldBeTrue)

	deps := resource.Dependencies{camera.Named("filtered"): filteredCam}
	conf := resource.Config{
		Name:                "filter-stats",
		API:                 sensor.API,
		Model:               Model,
		ConvertedAttributes: &Config{Camera: "filtered"},
	}
	s, err := newStatsSensor(ctx, deps, conf, logger)
	test.That(t, err, test.ShouldBeNil)

	_, _, err = filteredCam.Images(ctx, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	readings, err := s.Readings(ctx, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, readings["total_received"], test.ShouldEqual, int64(1))
	test.That(t, readings["total_accepted"], test.ShouldEqual, int64(1))
	test.That(t, readings["total_rejected"], test.ShouldEqual, int64(0))
	test.That(t, readings["session_id"], test.ShouldNotBeEmpty)
}
