package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/vesselwatch/transit-engine/internal/nats"
	"github.com/vesselwatch/transit-engine/internal/types"
)

// NATSClient interface for testability
type NATSClient interface {
	PublishPosition(msg *types.PositionMessage) error
	Close()
}

// defaultPollInterval is how often the input directory is scanned for
// newly dropped report files.
const defaultPollInterval = 10 * time.Second

func main() {
	inputDir := os.Getenv("INPUT_DIR")
	if inputDir == "" {
		log.Fatal("INPUT_DIR environment variable is required")
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats:4222" // Default to Docker service name
	}

	// Create NATS client
	client, err := nats.New(natsURL)
	if err != nil {
		log.Printf("Failed to create NATS client: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchDirectory(ctx, inputDir, client, defaultPollInterval)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()
	time.Sleep(time.Second) // Give time for goroutines to clean up
}

// watchDirectory polls dir for CSV drops and publishes their rows. A file
// is renamed with a .done suffix once fully published so a restart never
// replays it.
func watchDirectory(ctx context.Context, dir string, client NATSClient, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := publishPending(dir, client); err != nil {
			log.Printf("Error scanning %s: %v", dir, err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func publishPending(dir string, client NATSClient) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		published, err := publishFile(path, client)
		if err != nil {
			log.Printf("Error from file %s: %v", name, err)
			continue
		}
		log.Printf("Published %d positions from %s", published, name)

		if err := os.Rename(path, path+".done"); err != nil {
			return fmt.Errorf("failed to mark %s as done: %w", name, err)
		}
	}
	return nil
}

// publishFile streams the rows of a single report file to the positions
// subject. The header row is skipped; blank lines are ignored.
func publishFile(path string, client NATSClient) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing file: %v\n", err)
		}
	}()

	source := filepath.Base(path)
	scanner := bufio.NewScanner(f)
	published := 0
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false
			continue
		}
		if line == "" {
			continue
		}

		msg := &types.PositionMessage{
			Raw:       line,
			Source:    source,
			Timestamp: time.Now().UTC(),
		}
		if err := client.PublishPosition(msg); err != nil {
			log.Printf("Failed to publish position: %v", err)
			continue
		}
		published++
	}
	if err := scanner.Err(); err != nil {
		return published, fmt.Errorf("read error: %w", err)
	}
	return published, nil
}
