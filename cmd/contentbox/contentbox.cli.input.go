package main

import (
	"bytes"
	"io"
	"os"

	"github.com/natefinch/atomic"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// writeOutput writes content to stdout or replaces the file at path atomically
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput || path == "" {
		_, err := stdout.Write(data)
		return err
	}

	return atomic.WriteFile(path, bytes.NewReader(data))
}
