package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"

	"github.com/your-org/memorybook/internal/config"
	"github.com/your-org/memorybook/internal/facepipe"
	"github.com/your-org/memorybook/internal/observability"
	"github.com/your-org/memorybook/internal/storage"
	"github.com/your-org/memorybook/internal/vision"
)

// reindex runs the face pipeline over every stored photo of a user.
// Photos that already have active faces are skipped by the pipeline
// itself, so re-running after a partial failure is safe.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	userFlag := flag.String("user", "", "user id to reindex (required)")
	batchSize := flag.Int("batch", 100, "photos fetched per page")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a valid -user id is required")
		os.Exit(1)
	}

	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Vision.Region))
	if err != nil {
		slog.Error("load aws config", "error", err)
		os.Exit(1)
	}

	pipeline := facepipe.New(vision.NewRekognitionProvider(awsCfg), db, cfg.Vision)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var processed, skipped, failed, faces int
	offset := 0

	for {
		photos, err := db.ListPhotosByUser(ctx, userID, *batchSize, offset)
		if err != nil {
			slog.Error("list photos", "error", err)
			os.Exit(1)
		}
		if len(photos) == 0 {
			break
		}
		offset += len(photos)

		for _, photo := range photos {
			if ctx.Err() != nil {
				slog.Warn("interrupted, stopping")
				break
			}

			imageData, err := minioStore.GetObject(ctx, photo.StorageKey)
			if err != nil {
				slog.Error("fetch photo bytes", "photo_id", photo.ID, "error", err)
				failed++
				continue
			}

			result, err := pipeline.IndexPhoto(ctx, userID, photo.ID, imageData)
			if err != nil {
				slog.Error("index photo", "photo_id", photo.ID, "error", err)
				failed++
				continue
			}

			switch result.Status {
			case facepipe.StatusAlreadyProcessed:
				skipped++
			default:
				processed++
				faces += result.FacesDetected
				slog.Info("photo indexed",
					"photo_id", photo.ID,
					"faces", result.FacesDetected,
					"auto_assigned", len(result.AutoAssigned),
					"needs_input", len(result.NeedsUserInput),
				)
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	slog.Info("reindex complete",
		"user_id", userID,
		"processed", processed,
		"skipped", skipped,
		"failed", failed,
		"faces_detected", faces,
	)
	if failed > 0 {
		os.Exit(1)
	}
}
