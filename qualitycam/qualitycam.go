// Package qualitycam registers a camera model that sits between a depth
// camera and its consumers, scoring every frame and holding back the ones
// too degraded to feed a volumetric reconstruction. Live viewers always see
// the stream; data capture and point cloud consumers only receive frames
// the filter accepts.
package qualitycam

import (
	"context"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/rimage"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"
	"go.viam.com/utils/trace"

	"github.com/viam-modules/depth-quality-filter/depthquality"
)

// Model is the camera model this package registers.
var Model = resource.NewModel("viam", "depth-quality-filter", "camera")

// ErrFrameRejected wraps every quality rejection surfaced to non-capture
// consumers, so integrators can errors.Is for it and wait for the next
// frame.
var ErrFrameRejected = errors.New("depth frame rejected by quality filter")

func init() {
	resource.RegisterComponent(
		camera.API,
		Model,
		resource.Registration[camera.Camera, *Config]{
			Constructor: newQualityCamera,
		})
}

// Config holds the attributes of the depth-quality camera. Pointer fields
// distinguish an explicit zero from "use the documented default".
type Config struct {
	Source              string   `json:"source"`
	Enabled             *bool    `json:"enable_quality_filter,omitempty"`
	MinQuality          *float64 `json:"min_quality_threshold,omitempty"`
	MinCoverage         *float64 `json:"min_coverage,omitempty"`
	MinSmoothness       *float64 `json:"min_smoothness,omitempty"`
	LogRejected         *bool    `json:"log_rejected_frames,omitempty"`
	MinDepthMM          int      `json:"min_depth_mm,omitempty"`
	MaxDepthMM          int      `json:"max_depth_mm,omitempty"`
	RequireAlignedColor bool     `json:"require_aligned_color,omitempty"`
	StatsPeriod         string   `json:"stats_period,omitempty"`
}

// Validate checks the attributes and returns the source camera as a
// required dependency. Threshold violations fail configuration rather than
// being clamped.
func (conf *Config) Validate(path string) ([]string, []string, error) {
	if conf.Source == "" {
		return nil, nil, resource.NewConfigValidationFieldRequiredError(path, "source")
	}
	if _, err := conf.filterConfig(); err != nil {
		return nil, nil, resource.NewConfigValidationError(path, err)
	}
	if _, err := conf.statsPeriod(); err != nil {
		return nil, nil, resource.NewConfigValidationError(path, err)
	}
	return []string{conf.Source}, nil, nil
}

// filterConfig folds the attribute map onto the documented defaults.
func (conf *Config) filterConfig() (depthquality.Config, error) {
	fc := depthquality.DefaultConfig()
	if conf.Enabled != nil {
		fc.Enabled = *conf.Enabled
	}
	if conf.MinQuality != nil {
		fc.MinQuality = *conf.MinQuality
	}
	if conf.MinCoverage != nil {
		fc.MinCoverage = *conf.MinCoverage
	}
	if conf.MinSmoothness != nil {
		fc.MinSmoothness = *conf.MinSmoothness
	}
	if conf.LogRejected != nil {
		fc.LogRejected = *conf.LogRejected
	}
	if conf.MinDepthMM < 0 || conf.MaxDepthMM < 0 {
		return fc, errors.New("depth range bounds cannot be negative")
	}
	fc.ValidRange = depthquality.DepthRange{
		Min: rimage.Depth(conf.MinDepthMM),
		Max: rimage.Depth(conf.MaxDepthMM),
	}
	if err := fc.Validate(); err != nil {
		return fc, err
	}
	return fc, nil
}

func (conf *Config) statsPeriod() (time.Duration, error) {
	if conf.StatsPeriod == "" {
		return 0, nil
	}
	period, err := time.ParseDuration(conf.StatsPeriod)
	if err != nil {
		return 0, errors.Wrap(err, "stats_period")
	}
	if period <= 0 {
		return 0, errors.New("stats_period must be positive")
	}
	return period, nil
}

type qualityCamera struct {
	resource.Named
	resource.AlwaysRebuild

	source              camera.Camera
	logger              logging.Logger
	requireAlignedColor bool

	// mu guards filter, which restart_session swaps for a fresh one.
	mu     sync.Mutex
	filter *depthquality.Filter

	workers *goutils.StoppableWorkers
}

func newQualityCamera(
	ctx context.Context,
	deps resource.Dependencies,
	conf resource.Config,
	logger logging.Logger,
) (camera.Camera, error) {
	newConf, err := resource.NativeConfig[*Config](conf)
	if err != nil {
		return nil, err
	}
	source, err := camera.FromProvider(deps, newConf.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "no source camera %q", newConf.Source)
	}
	fc, err := newConf.filterConfig()
	if err != nil {
		return nil, err
	}
	filter, err := depthquality.New(fc, logger)
	if err != nil {
		return nil, err
	}
	qc := &qualityCamera{
		Named:               conf.ResourceName().AsNamed(),
		source:              source,
		logger:              logger,
		requireAlignedColor: newConf.RequireAlignedColor,
		filter:              filter,
	}
	if period, err := newConf.statsPeriod(); err != nil {
		return nil, err
	} else if period > 0 {
		qc.workers = goutils.NewBackgroundStoppableWorkers(func(ctx context.Context) {
			qc.logStatsLoop(ctx, period)
		})
	}
	logger.Infow("depth quality filter session started",
		"session_id", filter.SessionID(),
		"source", newConf.Source,
		"enabled", fc.Enabled,
	)
	return qc, nil
}

func (qc *qualityCamera) currentFilter() *depthquality.Filter {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	return qc.filter
}

// restartSession swaps in a fresh filter with the same config and returns
// the finished session's summary.
func (qc *qualityCamera) restartSession() (depthquality.Stats, error) {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	fresh, err := depthquality.New(qc.filter.Config(), qc.logger)
	if err != nil {
		return depthquality.Stats{}, err
	}
	summary := qc.filter.Stats()
	qc.filter = fresh
	qc.logger.Infow("depth quality filter session restarted",
		"previous_session_id", summary.SessionID,
		"session_id", fresh.SessionID(),
	)
	return summary, nil
}

func (qc *qualityCamera) logStatsLoop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := qc.currentFilter().Stats()
			qc.logger.Infow("depth quality session stats",
				"session_id", s.SessionID,
				"total_received", s.TotalReceived,
				"total_accepted", s.TotalAccepted,
				"total_rejected", s.TotalRejected,
				"rejection_rate", s.RejectionRate,
			)
		}
	}
}

// fromDataManagement reports whether a read came from the data capture
// service, marked on the context for in-process readers or in extra across
// gRPC.
func fromDataManagement(ctx context.Context, extra map[string]interface{}) bool {
	if v, ok := ctx.Value(data.FromDMContextKey{}).(bool); ok && v {
		return true
	}
	return extra[data.FromDMString] == true
}

// depthFromImages digs the depth map and, when present, a registered color
// image out of a set of source images.
func depthFromImages(ctx context.Context, images []camera.NamedImage) (*rimage.DepthMap, *rimage.Image, error) {
	var dm *rimage.DepthMap
	var col *rimage.Image
	for i := range images {
		img, err := images[i].Image(ctx)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not decode source image %q", images[i].SourceName)
		}
		if dm == nil {
			if converted, err := rimage.ConvertImageToDepthMap(ctx, img); err == nil {
				dm = converted
				continue
			}
		}
		if col == nil {
			col = rimage.ConvertImage(img)
		}
	}
	if dm == nil {
		return nil, nil, errors.New("source returned no depth image")
	}
	return dm, col, nil
}

// assess runs one frame through the session filter. The returned decision
// is recorded in the session statistics.
func (qc *qualityCamera) assess(dm *rimage.DepthMap, col *rimage.Image, capturedAt time.Time) (depthquality.Decision, error) {
	if qc.requireAlignedColor && col != nil {
		if depthquality.AlignmentScore(col, dm) == 0 {
			return depthquality.Decision{}, errors.New("color and depth images are not aligned")
		}
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	return qc.currentFilter().Assess(depthquality.Frame{Depth: dm, CapturedAt: capturedAt})
}

// Images fetches from the source and scores the depth image found there.
// Rejected frames are withheld from data capture via ErrNoCaptureToStore;
// live callers still receive them so operators can see what the sensor
// sees.
func (qc *qualityCamera) Images(
	ctx context.Context,
	filterSourceNames []string,
	extra map[string]interface{},
) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	ctx, span := trace.StartSpan(ctx, "camera::qualitycam::Images")
	defer span.End()
	images, meta, err := qc.source.Images(ctx, filterSourceNames, extra)
	if err != nil {
		return nil, resource.ResponseMetadata{}, err
	}
	dm, col, err := depthFromImages(ctx, images)
	if err != nil {
		return nil, resource.ResponseMetadata{}, err
	}
	decision, err := qc.assess(dm, col, meta.CapturedAt)
	if err != nil {
		return nil, resource.ResponseMetadata{}, err
	}
	if !decision.Accepted && fromDataManagement(ctx, extra) {
		return nil, resource.ResponseMetadata{}, data.ErrNoCaptureToStore
	}
	return images, meta, nil
}

// Image gates the single-image path the same way Images does. Bytes that do
// not decode to a depth map, such as a colorized live render, pass through
// without assessment; the depth encodings capture uses always get scored.
func (qc *qualityCamera) Image(
	ctx context.Context,
	mimeType string,
	extra map[string]interface{},
) ([]byte, camera.ImageMetadata, error) {
	ctx, span := trace.StartSpan(ctx, "camera::qualitycam::Image")
	defer span.End()
	imgBytes, meta, err := qc.source.Image(ctx, mimeType, extra)
	if err != nil {
		return nil, camera.ImageMetadata{}, err
	}
	effectiveMime := meta.MimeType
	if effectiveMime == "" {
		effectiveMime = mimeType
	}
	img, err := rimage.DecodeImage(ctx, imgBytes, effectiveMime)
	if err != nil {
		return nil, camera.ImageMetadata{}, errors.Wrap(err, "could not decode source image")
	}
	dm, err := rimage.ConvertImageToDepthMap(ctx, img)
	if err != nil {
		return imgBytes, meta, nil
	}
	decision, err := qc.assess(dm, nil, time.Time{})
	if err != nil {
		return nil, camera.ImageMetadata{}, err
	}
	if !decision.Accepted && fromDataManagement(ctx, extra) {
		return nil, camera.ImageMetadata{}, data.ErrNoCaptureToStore
	}
	return imgBytes, meta, nil
}

// NextPointCloud is the reconstruction consumer's path, so rejected frames
// never pass: capture readers get ErrNoCaptureToStore and everything else
// gets ErrFrameRejected with the reason attached. The gate scores the depth
// raster fetched alongside the cloud; at sensor rates the two describe the
// same instant for any practical purpose.
func (qc *qualityCamera) NextPointCloud(ctx context.Context, extra map[string]interface{}) (pointcloud.PointCloud, error) {
	ctx, span := trace.StartSpan(ctx, "camera::qualitycam::NextPointCloud")
	defer span.End()
	images, meta, err := qc.source.Images(ctx, nil, extra)
	if err != nil {
		return nil, err
	}
	dm, col, err := depthFromImages(ctx, images)
	if err != nil {
		return nil, err
	}
	decision, err := qc.assess(dm, col, meta.CapturedAt)
	if err != nil {
		return nil, err
	}
	if !decision.Accepted {
		if fromDataManagement(ctx, extra) {
			return nil, data.ErrNoCaptureToStore
		}
		return nil, errors.Wrapf(ErrFrameRejected, "reason %s, quality %.3f", decision.Reason, decision.Score.Overall)
	}
	return qc.source.NextPointCloud(ctx, extra)
}

// Properties reports the source camera's properties unchanged.
func (qc *qualityCamera) Properties(ctx context.Context) (camera.Properties, error) {
	return qc.source.Properties(ctx)
}

func (qc *qualityCamera) Geometries(ctx context.Context, extra map[string]interface{}) ([]spatialmath.Geometry, error) {
	return nil, nil
}

type commandRequest struct {
	Command string `mapstructure:"command"`
}

// DoCommand exposes the session controls:
//
//	{"command": "stats"}            current session statistics
//	{"command": "restart_session"}  start a new session, returning the old summary
//	{"command": "assess"}           score one frame without gating or recording it
func (qc *qualityCamera) DoCommand(ctx context.Context, cmd map[string]interface{}) (map[string]interface{}, error) {
	var req commandRequest
	if err := mapstructure.Decode(cmd, &req); err != nil {
		return nil, errors.Wrap(err, "could not parse command")
	}
	switch req.Command {
	case "stats":
		return statsMap(qc.currentFilter().Stats()), nil
	case "restart_session":
		summary, err := qc.restartSession()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"session_id":       qc.currentFilter().SessionID(),
			"previous_session": statsMap(summary),
		}, nil
	case "assess":
		images, meta, err := qc.source.Images(ctx, nil, nil)
		if err != nil {
			return nil, err
		}
		dm, _, err := depthFromImages(ctx, images)
		if err != nil {
			return nil, err
		}
		capturedAt := meta.CapturedAt
		if capturedAt.IsZero() {
			capturedAt = time.Now()
		}
		decision, err := qc.currentFilter().Evaluate(depthquality.Frame{Depth: dm, CapturedAt: capturedAt})
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"accepted":     decision.Accepted,
			"reason":       string(decision.Reason),
			"quality":      decision.Score.Overall,
			"coverage":     decision.Score.Coverage,
			"smoothness":   decision.Score.Smoothness,
			"edge_quality": decision.Score.EdgeQuality,
			"noise":        decision.Score.Noise,
		}, nil
	case "":
		return nil, errors.New("missing command")
	default:
		return nil, errors.Errorf("unknown command %q", req.Command)
	}
}

func statsMap(s depthquality.Stats) map[string]interface{} {
	return map[string]interface{}{
		"session_id":     s.SessionID,
		"started_at":     s.StartedAt.Format(time.RFC3339),
		"elapsed_sec":    s.Elapsed.Seconds(),
		"total_received": s.TotalReceived,
		"total_accepted": s.TotalAccepted,
		"total_rejected": s.TotalRejected,
		"rejection_rate": s.RejectionRate,
	}
}

// Close stops the stats worker and logs the final session summary. The
// source camera belongs to the dependency graph and stays open.
func (qc *qualityCamera) Close(ctx context.Context) error {
	if qc.workers != nil {
		qc.workers.Stop()
	}
	s := qc.currentFilter().Stats()
	qc.logger.Infow("depth quality filter session ended",
		"session_id", s.SessionID,
		"total_received", s.TotalReceived,
		"total_accepted", s.TotalAccepted,
		"total_rejected", s.TotalRejected,
		"rejection_rate", s.RejectionRate,
		"elapsed", s.Elapsed.String(),
	)
	return nil
}
