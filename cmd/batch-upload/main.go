package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/omegonstudio/fotos-patagonia-sub000/internal/uploader"
)

// batch-upload pushes a directory of photos through the full client-side
// pipeline: compress, derive thumbnails, request presigned URLs, transfer
// with a bounded pool and register the batch in the catalog.
func main() {
	var (
		server       = flag.String("server", "http://localhost:8080", "API base URL")
		token        = flag.String("token", "", "Bearer token from /login")
		dir          = flag.String("dir", ".", "Directory with photos to upload")
		photographer = flag.Int("photographer", 0, "Photographer ID")
		album        = flag.Int("album", 0, "Album ID (0 for none)")
		price        = flag.Float64("price", 0, "Price per photo")
		description  = flag.String("description", "", "Shared photo description")
		concurrency  = flag.Int("concurrency", 3, "Parallel uploads")
	)
	flag.Parse()

	if *token == "" {
		log.Fatal("a bearer token is required, sign in first")
	}

	files, err := readImages(*dir)
	if err != nil {
		log.Fatalf("failed to read photos: %s", err)
	}
	if len(files) == 0 {
		log.Fatalf("no images found in %s", *dir)
	}
	slog.Info("batch prepared", slog.Int("files", len(files)), slog.String("dir", *dir))

	client := &http.Client{Timeout: 5 * time.Minute}
	pipeline := uploader.NewPipeline(
		uploader.NewHTTPBroker(*server, *token, client),
		uploader.NewHTTPCatalog(*server, *token, client),
		uploader.WithConcurrency(*concurrency),
		uploader.WithHTTPClient(client),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := uploader.BatchRequest{
		Files:          files,
		PhotographerID: *photographer,
		Price:          *price,
		Description:    *description,
		OnProgress: func(u uploader.ProgressUpdate) {
			fmt.Printf("\r%3d%% (%d/%d bytes)", u.Percentage, u.UploadedBytes, u.TotalBytes)
		},
	}
	if *album > 0 {
		req.AlbumID = album
	}

	result, err := pipeline.Run(ctx, req)
	fmt.Println()
	if err != nil {
		if result != nil {
			fmt.Println(result.Summary())
		}
		log.Fatalf("batch failed: %s", err)
	}

	fmt.Println(result.Summary())
	for _, f := range result.FailedFiles {
		fmt.Printf("  %s (%s): %s\n", f.Filename, f.Kind, f.Reason)
	}
}

// readImages loads every supported image in dir, non-recursively.
func readImages(dir string) ([]uploader.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []uploader.SourceFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		contentType := mime.TypeByExtension(ext)
		if !strings.HasPrefix(contentType, "image/") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, uploader.SourceFile{
			Name:        e.Name(),
			ContentType: contentType,
			Data:        data,
		})
	}
	return files, nil
}
