// Package staticcamera provides a camera backed by fixed frames for tests
// and examples. Every read hands back the same depth map until the caller
// swaps it, which makes gating behavior deterministic to assert on.
package staticcamera

import (
	"context"
	"sync"
	"time"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/rimage"
	"go.viam.com/rdk/spatialmath"
	rutils "go.viam.com/rdk/utils"
)

// Camera serves fixed depth and color frames. Set fields before handing it
// to the code under test; SwapDepth changes the served frame mid-test.
type Camera struct {
	resource.Named
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	mu          sync.Mutex
	depthImg    *rimage.DepthMap
	colorImg    *rimage.Image
	captureTime time.Time

	// ImagesErr, when set, fails every read.
	ImagesErr error

	// DoFunc, when set, handles DoCommand.
	DoFunc func(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error)

	imagesCalls     int
	pointCloudCalls int
}

// New returns a camera named name serving dm.
func New(name string, dm *rimage.DepthMap) *Camera {
	return &Camera{
		Named:    camera.Named(name).AsNamed(),
		depthImg: dm,
	}
}

// WithColor attaches a registered color frame served alongside depth.
func (c *Camera) WithColor(col *rimage.Image) *Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colorImg = col
	return c
}

// WithCaptureTime fixes the capture timestamp reported with every frame.
func (c *Camera) WithCaptureTime(ts time.Time) *Camera {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captureTime = ts
	return c
}

// SwapDepth replaces the served depth frame.
func (c *Camera) SwapDepth(dm *rimage.DepthMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.depthImg = dm
}

// ImagesCalls reports how many reads reached this camera.
func (c *Camera) ImagesCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imagesCalls
}

// PointCloudCalls reports how many point cloud reads reached this camera.
func (c *Camera) PointCloudCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointCloudCalls
}

func (c *Camera) Images(
	ctx context.Context,
	filterSourceNames []string,
	extra map[string]interface{},
) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imagesCalls++
	if c.ImagesErr != nil {
		return nil, resource.ResponseMetadata{}, c.ImagesErr
	}
	var images []camera.NamedImage
	if c.depthImg != nil {
		ni, err := camera.NamedImageFromImage(c.depthImg, "depth", rutils.MimeTypeRawDepth, data.Annotations{})
		if err != nil {
			return nil, resource.ResponseMetadata{}, err
		}
		images = append(images, ni)
	}
	if c.colorImg != nil {
		ni, err := camera.NamedImageFromImage(c.colorImg, "color", rutils.MimeTypePNG, data.Annotations{})
		if err != nil {
			return nil, resource.ResponseMetadata{}, err
		}
		images = append(images, ni)
	}
	ts := c.captureTime
	if ts.IsZero() {
		ts = time.Now()
	}
	return images, resource.ResponseMetadata{CapturedAt: ts}, nil
}

func (c *Camera) Image(ctx context.Context, mimeType string, extra map[string]interface{}) ([]byte, camera.ImageMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ImagesErr != nil {
		return nil, camera.ImageMetadata{}, c.ImagesErr
	}
	if mimeType == "" {
		mimeType = rutils.MimeTypeRawDepth
	}
	imgBytes, err := rimage.EncodeImage(ctx, c.depthImg, mimeType)
	if err != nil {
		return nil, camera.ImageMetadata{}, err
	}
	return imgBytes, camera.ImageMetadata{MimeType: mimeType}, nil
}

func (c *Camera) NextPointCloud(ctx context.Context, extra map[string]interface{}) (pointcloud.PointCloud, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pointCloudCalls++
	if c.ImagesErr != nil {
		return nil, c.ImagesErr
	}
	pc := pointcloud.NewBasicEmpty()
	return pc, pc.Set(pointcloud.NewVector(0, 0, 0), nil)
}

func (c *Camera) Properties(ctx context.Context) (camera.Properties, error) {
	return camera.Properties{
		SupportsPCD: true,
		ImageType:   camera.DepthStream,
	}, nil
}

func (c *Camera) Geometries(ctx context.Context, extra map[string]interface{}) ([]spatialmath.Geometry, error) {
	return nil, nil
}

func (c *Camera) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	if c.DoFunc != nil {
		return c.DoFunc(ctx, cmd)
	}
	return nil, resource.ErrDoUnimplemented
}
