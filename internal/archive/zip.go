package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// fileContent is one fully read file awaiting archiving.
type fileContent struct {
	relPath string
	data    []byte
}

// buildZip archives the contents in order with maximum compression and
// returns the full archive byte buffer.
func buildZip(contents []fileContent) ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, fc := range contents {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   fc.relPath,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", fc.relPath, err)
		}
		if _, err := w.Write(fc.data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", fc.relPath, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
