//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedHealthgapPath holds the path to a shared healthgap binary built once for all tests.
	sharedHealthgapPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getHealthgapBinary returns the path to the healthgap binary, building it once if needed.
func getHealthgapBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "healthgap-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		healthgapPath := filepath.Join(tempDir, "healthgap")
		buildCmd := exec.Command("go", "build", "-o", healthgapPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build healthgap: %v\n%s", err, out))
		}

		sharedHealthgapPath = healthgapPath
	})

	return sharedHealthgapPath
}

// testDataDir returns the absolute path of the bundled sample data.
func testDataDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "testdata"))
	if err != nil {
		t.Fatalf("failed to resolve testdata: %v", err)
	}
	return dir
}

// runHealthgap runs the binary from the project root with the sample data and
// returns its combined output.
func runHealthgap(t *testing.T, args ...string) (string, error) {
	t.Helper()
	args = append(args, "--data-dir", testDataDir(t))
	cmd := exec.Command(getHealthgapBinary(), args...)
	cmd.Dir = ".." // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
