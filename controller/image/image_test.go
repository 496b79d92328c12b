package image_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/blockdev/go-blockdev/controller"
	"github.com/blockdev/go-blockdev/controller/image"
)

// testImage is 3 sectors where every byte of sector n holds n
func testImage() []byte {
	img := make([]byte, 3*512)
	for i := range img {
		img[i] = byte(i / 512)
	}
	return img
}

func writeXZ(t *testing.T, path string, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeLZ4(t *testing.T, path string, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestOpenFormats(t *testing.T) {
	img := testImage()
	dir := t.TempDir()

	tests := []struct {
		name  string
		write func(*testing.T, string, []byte)
	}{
		{"raw", func(t *testing.T, path string, data []byte) {
			require.NoError(t, os.WriteFile(path, data, 0o644))
		}},
		{"xz", writeXZ},
		{"lz4", writeLZ4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".img")
			tt.write(t, path, img)

			dev, err := image.Open(path, 512)
			require.NoError(t, err)
			require.Equal(t, uint64(3*512), dev.Size())

			drv := controller.MustDriver(controller.Image)
			got := make([]byte, 3*512)
			require.NoError(t, drv.Do(dev, controller.OpRead, 0, 3, got))
			require.Equal(t, img, got)
		})
	}
}

func TestPadding(t *testing.T) {
	// an image that is not sector-aligned is padded up
	path := filepath.Join(t.TempDir(), "odd.img")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x7F}, 700), 0o644))

	dev, err := image.Open(path, 512)
	require.NoError(t, err)
	require.Equal(t, uint64(1024), dev.Size())

	drv := controller.MustDriver(controller.Image)
	got := make([]byte, 1024)
	require.NoError(t, drv.Do(dev, controller.OpRead, 0, 2, got))
	require.Equal(t, bytes.Repeat([]byte{0x7F}, 700), got[:700])
	require.Equal(t, make([]byte, 324), got[700:])
}

func TestReadBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 4*512), 0o644))

	dev, err := image.Open(path, 512)
	require.NoError(t, err)

	drv := controller.MustDriver(controller.Image)
	if err := drv.Do(dev, controller.OpRead, 3, 2, make([]byte, 1024)); err == nil {
		t.Error("expected error reading past the image end")
	}
	// lba*sectorSize wraps to 0 here; the check must still reject it
	if err := drv.Do(dev, controller.OpRead, 1<<55, 1, make([]byte, 512)); err == nil {
		t.Error("expected error for an lba whose byte offset overflows")
	}
}

func TestWriteRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ro.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0o644))

	dev, err := image.Open(path, 512)
	require.NoError(t, err)

	drv := controller.MustDriver(controller.Image)
	err = drv.Do(dev, controller.OpWrite, 0, 1, make([]byte, 512))
	if !errors.Is(err, image.ErrReadOnly) {
		t.Errorf("mismatched error, actual %v expected %v", err, image.ErrReadOnly)
	}
}

func TestCorruptCompressed(t *testing.T) {
	// valid magic followed by garbage must fail, not silently
	// produce an empty device
	path := filepath.Join(t.TempDir(), "bad.xz")
	bad := append(bytes.Clone([]byte{0xFD, '7', 'z', 'X', 'Z', 0x00}), bytes.Repeat([]byte{0xFF}, 64)...)
	require.NoError(t, os.WriteFile(path, bad, 0o644))

	if _, err := image.Open(path, 512); err == nil {
		t.Error("expected error for corrupt xz payload")
	}
}
