package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/enrollment"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <roll-number> <photo-dir>",
	Short: "Enroll a student from a directory of face photos",
	Long: `Build a face gallery for a registered student from every image in
the given directory. Photos where no usable face embedding can be
extracted are skipped and reported; re-running replaces the gallery.`,
	Args: cobra.ExactArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

// isImageFile reports whether the filename has a supported image extension.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// readPhotoDir loads every supported image in the directory, in name order.
func readPhotoDir(dir string) ([][]byte, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading photo directory: %w", err)
	}

	var photos [][]byte
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		photos = append(photos, data)
		paths = append(paths, path)
	}
	return photos, paths, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	rollNumber := args[0]
	photoDir := args[1]

	cfg := config.Load()

	photos, paths, err := readPhotoDir(photoDir)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		return fmt.Errorf("no images found in %s", photoDir)
	}

	b, err := openBackends(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()

	student, err := b.students.GetByRollNumber(ctx, rollNumber)
	if err != nil {
		return fmt.Errorf("looking up student %s: %w", rollNumber, err)
	}

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Extracting embeddings"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	pipeline := enrollment.NewPipeline(b.extractor, b.galleries, b.students).
		WithProgress(func(done, total int) {
			_ = bar.Set(done)
		})

	result, err := pipeline.Enroll(ctx, rollNumber, photos)
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", rollNumber, err)
	}
	fmt.Println()

	if err := b.students.AddPhotoRefs(ctx, student.ID, paths); err != nil {
		fmt.Printf("Warning: recording photo paths failed: %v\n", err)
	}

	fmt.Printf("Enrolled %s (%s)\n", student.Name, student.RollNumber)
	fmt.Printf("  Photos:    %d\n", result.Attempted)
	fmt.Printf("  Succeeded: %d\n", result.Succeeded)
	fmt.Printf("  Failed:    %d\n", result.Failed)
	fmt.Printf("  Gallery:   %s\n", result.Handle)
	if result.Succeeded == 0 {
		fmt.Println("Warning: no usable face found in any photo; the gallery is empty and will never match")
	}
	return nil
}
