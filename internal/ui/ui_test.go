package ui

import (
	"bytes"
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	t.Cleanup(func() { SetOutput(os.Stdout, os.Stderr) })
	return &stdout, &stderr
}

func TestLogfTimestamped(t *testing.T) {
	stdout, _ := capture(t)

	Logf("deploying %s", "repo")

	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] deploying repo\n$`), stdout.String())
}

func TestErrorfGoesToStderr(t *testing.T) {
	stdout, stderr := capture(t)

	Errorf("boom")

	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "boom")
}

func TestHeader(t *testing.T) {
	stdout, _ := capture(t)

	Header("TITLE")

	assert.Contains(t, stdout.String(), "TITLE")
	assert.Contains(t, stdout.String(), "╔")
}
