package logging

import (
	"bytes"
	"encoding/json"
	"io"
)

// redactWriter replaces known secret values in log output before they
// reach the underlying writer.
type redactWriter struct {
	writer   io.Writer
	patterns [][]byte
}

func (rw *redactWriter) Write(p []byte) (int, error) {
	for _, pattern := range rw.patterns {
		p = bytes.ReplaceAll(p, pattern, []byte("[REDACTED]"))
	}
	return rw.writer.Write(p)
}

// redacted wraps writer so that any occurrence of a secret is replaced.
// Secrets may contain newlines (PEM keys), which zerolog escapes in JSON
// output, so the JSON-escaped form of each secret is matched too. With no
// secrets configured the writer is returned untouched.
func redacted(writer io.Writer, secrets []string) io.Writer {
	if len(secrets) == 0 {
		return writer
	}
	patterns := make([][]byte, 0, len(secrets)*2)
	for _, secret := range secrets {
		patterns = append(patterns, []byte(secret))
		if escaped, err := json.Marshal(secret); err == nil {
			escaped = escaped[1 : len(escaped)-1]
			if !bytes.Equal(escaped, []byte(secret)) {
				patterns = append(patterns, escaped)
			}
		}
	}
	return &redactWriter{writer: writer, patterns: patterns}
}
