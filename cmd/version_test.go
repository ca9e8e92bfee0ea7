package cmd

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/MrArkon/Rustic/rustic"
	"github.com/stretchr/testify/assert"
)

func TestVersionCommand(t *testing.T) {
	originalVersion := rustic.Version
	originalCommitSHA := rustic.CommitSHA
	originalBuildTime := rustic.BuildTime

	t.Cleanup(
		func() {
			rustic.Version = originalVersion
			rustic.CommitSHA = originalCommitSHA
			rustic.BuildTime = originalBuildTime
		},
	)

	rustic.Version = "1.0.0"
	rustic.CommitSHA = "abc123"
	rustic.BuildTime = "2024-06-01T12:00:00Z"

	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	t.Cleanup(
		func() {
			os.Stdout = orig
		},
	)

	// Capture the output
	versionCmd.Run(nil, nil)

	_ = w.Close()

	out, _ := io.ReadAll(r)
	output := string(out)
	t.Logf("output: %s", string(out))
	expected := fmt.Sprintf(
		"version=%s commit=%s built: %s",
		rustic.Version,
		rustic.CommitSHA,
		rustic.BuildTime,
	)
	assert.Equal(t, expected, output)
}
