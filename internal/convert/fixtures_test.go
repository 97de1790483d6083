// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildPackage assembles an in-memory ZIP from part name to content.
func buildPackage(t *testing.T, parts map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func textParts(parts map[string]string) map[string][]byte {
	out := make(map[string][]byte, len(parts))
	for name, body := range parts {
		out[name] = []byte(body)
	}
	return out
}

// pngBytes is a minimal payload carrying the PNG magic prefix.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x01, 0x02}

// mockDescriber is a synchronous describer with a canned reply.
type mockDescriber struct {
	reply string
	err   error
	calls int32
	mimes []string
}

func (m *mockDescriber) Describe(image []byte, mimeType, prompt string) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	m.mimes = append(m.mimes, mimeType)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// indexedDescriber replies based on image content so tests can check that
// results pair with placeholders by position.
type indexedDescriber struct {
	replies map[string]string
	running int32
	peak    int32
	started chan struct{}
	release chan struct{}
}

func (d *indexedDescriber) DescribeContext(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	n := atomic.AddInt32(&d.running, 1)
	for {
		peak := atomic.LoadInt32(&d.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&d.peak, peak, n) {
			break
		}
	}
	if d.started != nil {
		d.started <- struct{}{}
	}
	if d.release != nil {
		select {
		case <-d.release:
		case <-ctx.Done():
			atomic.AddInt32(&d.running, -1)
			return "", ctx.Err()
		}
	}
	atomic.AddInt32(&d.running, -1)
	if reply, ok := d.replies[string(image)]; ok {
		return reply, nil
	}
	return "", errors.New("unknown image")
}
