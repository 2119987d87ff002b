// Package main connects to a robot and polls a depth quality filter camera
// for its session statistics, either directly over DoCommand or through a
// configured stats sensor.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/components/sensor"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/robot/client"
	"go.viam.com/utils/rpc"
)

func main() {
	address := flag.String("address", "", "robot address")
	apiKey := flag.String("api-key", "", "robot api key")
	apiKeyID := flag.String("api-key-id", "", "robot api key id")
	cameraName := flag.String("camera", "filtered-depth", "name of the depth quality filter camera")
	sensorName := flag.String("sensor", "", "poll this stats sensor instead of the camera")
	interval := flag.Duration("interval", 5*time.Second, "polling interval")
	flag.Parse()

	logger := logging.NewDebugLogger("depth-quality-client")

	if *address == "" || *apiKey == "" || *apiKeyID == "" {
		logger.Fatal("-address, -api-key and -api-key-id flags are required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	machine, err := client.New(
		ctx,
		*address,
		logger,
		client.WithDialOptions(rpc.WithEntityCredentials(
			*apiKeyID,
			rpc.Credentials{
				Type:    rpc.CredentialsTypeAPIKey,
				Payload: *apiKey,
			})),
	)
	if err != nil {
		logger.Fatal(err)
	}
	defer machine.Close(context.Background())

	logger.Info("Connected to robot")

	var poll func(ctx context.Context) (map[string]interface{}, error)
	if *sensorName != "" {
		s, err := sensor.FromProvider(machine, *sensorName)
		if err != nil {
			logger.Fatal(err)
		}
		poll = func(ctx context.Context) (map[string]interface{}, error) {
			return s.Readings(ctx, nil)
		}
	} else {
		cam, err := camera.FromProvider(machine, *cameraName)
		if err != nil {
			logger.Fatal(err)
		}
		poll = func(ctx context.Context) (map[string]interface{}, error) {
			return cam.DoCommand(ctx, map[string]interface{}{"command": "stats"})
		}
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := poll(ctx)
			if err != nil {
				logger.Errorw("could not fetch session stats", "error", err)
				continue
			}
			logger.Infow("depth quality session",
				"session_id", stats["session_id"],
				"received", stats["total_received"],
				"accepted", stats["total_accepted"],
				"rejected", stats["total_rejected"],
				"rejection_rate", stats["rejection_rate"],
			)
		}
	}
}
