package main

import (
	"compress/gzip"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/vesselwatch/transit-engine/internal/nats"
	"github.com/vesselwatch/transit-engine/internal/types"
)

func main() {
	if err := runArchiver(); err != nil {
		log.Printf("Archiver failed: %v", err)
		os.Exit(1)
	}
}

// runArchiver contains the main application logic and can be tested
func runArchiver() error {
	// Load configuration
	outputDir, natsURL := parseEnvironment()

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Create NATS client
	client, err := nats.New(natsURL)
	if err != nil {
		return fmt.Errorf("failed to create NATS client: %w", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Start the archiver
	archiver := NewArchiver(outputDir)
	go archiver.Start(ctx)

	// Subscribe to raw position messages
	if err := client.SubscribePositions(func(msg *types.PositionMessage) {
		if err := archiver.WriteMessage(msg); err != nil {
			log.Printf("Failed to write message: %v", err)
		}
	}); err != nil {
		client.Close()
		cancel()
		return fmt.Errorf("failed to subscribe to position messages: %w", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	client.Close()          // Close client before canceling context
	cancel()                // Cancel context after closing client
	time.Sleep(time.Second) // Give time for goroutines to clean up

	return nil
}

// parseEnvironment extracts environment variables with defaults
func parseEnvironment() (string, string) {
	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "./archive" // Default output directory
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://nats:4222" // Default to Docker service name
	}

	return outputDir, natsURL
}

// Archiver appends raw position rows to daily files and compresses the
// previous day's file on rotation.
type Archiver struct {
	outputDir    string
	currentFile  *os.File
	currentDate  string
	rotationChan chan struct{}
	mu           sync.RWMutex
}

// NewArchiver creates a new archiver instance
func NewArchiver(outputDir string) *Archiver {
	return &Archiver{
		outputDir:    outputDir,
		rotationChan: make(chan struct{}, 1),
	}
}

// Start initializes the archiver and starts the rotation timer
func (a *Archiver) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Initialize the current file
	if err := a.rotateFile(); err != nil {
		log.Printf("Failed to create initial archive file: %v", err)
		return
	}

	// Start rotation timer
	go a.rotationTimer(ctx)
}

// WriteMessage writes a raw position row to the current archive file
func (a *Archiver) WriteMessage(msg *types.PositionMessage) error {
	a.mu.RLock()
	currentDate := a.currentDate
	currentFile := a.currentFile
	a.mu.RUnlock()

	// Check if we need to rotate
	if currentDate != time.Now().UTC().Format("2006-01-02") {
		a.rotationChan <- struct{}{}
	}

	if _, err := currentFile.WriteString(msg.Raw + "\n"); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// rotationTimer handles daily archive rotation
func (a *Archiver) rotationTimer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.rotationChan:
			if err := a.rotateAndCompress(); err != nil {
				log.Printf("Failed to rotate archive: %v", err)
			}
		}
	}
}

// rotateAndCompress closes the current file, compresses the previous day's
// archive, and creates a new file
func (a *Archiver) rotateAndCompress() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Close current file
	if a.currentFile != nil {
		if err := a.currentFile.Close(); err != nil {
			return fmt.Errorf("failed to close current file: %w", err)
		}
	}

	// Compress previous day's archive if it exists
	if a.currentDate != "" {
		prevPath := filepath.Join(a.outputDir, fmt.Sprintf("positions_%s.log", a.currentDate))
		if err := compressFile(prevPath); err != nil {
			log.Printf("Failed to compress previous archive: %v", err)
		}
	}

	// Create new archive file
	return a.rotateFile()
}

// rotateFile creates a new archive file for the current day
func (a *Archiver) rotateFile() error {
	currentDate := time.Now().UTC().Format("2006-01-02")
	path := filepath.Join(a.outputDir, fmt.Sprintf("positions_%s.log", currentDate))

	//nolint:gosec // path is controlled by application logic
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}

	a.currentFile = file
	a.currentDate = currentDate
	return nil
}

// compressFile gzips an archive file and removes the original
func compressFile(filePath string) error {
	//nolint:gosec // filePath is controlled by application logic
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	compressedPath := filePath + ".gz"
	//nolint:gosec // compressedPath is controlled by application logic
	compressedFile, err := os.Create(compressedPath)
	if err != nil {
		return fmt.Errorf("failed to create compressed file: %w", err)
	}
	defer func() {
		if cerr := compressedFile.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "error closing compressed file: %v\n", cerr)
		}
	}()

	gz := gzip.NewWriter(compressedFile)
	if _, err := gz.Write(data); err != nil {
		return fmt.Errorf("failed to write compressed data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize compressed data: %w", err)
	}

	// Remove original file
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to remove original file: %w", err)
	}

	return nil
}

// GetCurrentFile returns the current file in a thread-safe manner
func (a *Archiver) GetCurrentFile() *os.File {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentFile
}

// GetCurrentDate returns the current date in a thread-safe manner
func (a *Archiver) GetCurrentDate() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.currentDate
}

// SetCurrentDateForTesting sets the current date for testing purposes
func (a *Archiver) SetCurrentDateForTesting(date string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentDate = date
}
