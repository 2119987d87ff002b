package depthquality

import (
	"testing"

	"go.viam.com/rdk/rimage"
	"go.viam.com/test"
)

func TestDefaultWeights(t *testing.T) {
	test.That(t, defaultWeights.Validate(), test.ShouldBeNil)
	test.That(t, defaultWeights.Coverage, test.ShouldEqual, 0.4)
	test.That(t, defaultWeights.Smoothness, test.ShouldEqual, 0.3)
	test.That(t, defaultWeights.EdgeQuality, test.ShouldEqual, 0.2)
	test.That(t, defaultWeights.Noise, test.ShouldEqual, 0.1)
}

func TestWeightsValidate(t *testing.T) {
	err := Weights{Coverage: 0.5, Smoothness: 0.5, EdgeQuality: 0.5, Noise: 0.5}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sum to 1")

	err = Weights{Coverage: -0.1, Smoothness: 0.5, EdgeQuality: 0.5, Noise: 0.1}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "coverage weight")

	err = Weights{Coverage: 1.1, Smoothness: -0.3, EdgeQuality: 0.1, Noise: 0.1}.Validate()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestScoreFrameBlend(t *testing.T) {
	for _, dm := range []*rimage.DepthMap{
		flatFrame(16, 16, 1200),
		checkerFrame(16, 16, 1000, 250),
		partialFrame(16, 16, 5, 1500),
		stepFrame(16, 16, 800, 1900),
	} {
		s := ScoreFrame(dm, DepthRange{})
		expected := 0.4*s.Coverage + 0.3*s.Smoothness + 0.2*s.EdgeQuality + 0.1*s.Noise
		test.That(t, s.Overall, test.ShouldAlmostEqual, expected, 1e-9)
	}
}

func TestScoreFrameAnchors(t *testing.T) {
	// a dense flat frame is as good as depth gets
	s := ScoreFrame(flatFrame(12, 12, 1400), DepthRange{})
	test.That(t, s.Coverage, test.ShouldEqual, 1.0)
	test.That(t, s.Smoothness, test.ShouldEqual, 1.0)
	test.That(t, s.EdgeQuality, test.ShouldEqual, 1.0)
	test.That(t, s.Noise, test.ShouldEqual, 1.0)
	test.That(t, s.Overall, test.ShouldAlmostEqual, 1.0, 1e-9)

	// a frame with no readings at all bottoms out everywhere
	s = ScoreFrame(rimage.NewEmptyDepthMap(12, 12), DepthRange{})
	test.That(t, s.Coverage, test.ShouldEqual, 0.0)
	test.That(t, s.Smoothness, test.ShouldEqual, 0.0)
	test.That(t, s.EdgeQuality, test.ShouldEqual, 0.0)
	test.That(t, s.Noise, test.ShouldEqual, 0.0)
	test.That(t, s.Overall, test.ShouldEqual, 0.0)
}

func TestScoreFrameDeterministic(t *testing.T) {
	dm := speckledFrame(16, 16, 1000, 600, 3)
	first := ScoreFrame(dm, DepthRange{})
	second := ScoreFrame(dm, DepthRange{})
	test.That(t, second, test.ShouldResemble, first)
}
