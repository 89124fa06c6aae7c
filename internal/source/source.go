// Package source reads statement files for import. A URI with a gs://
// scheme is fetched from Google Cloud Storage using Application Default
// Credentials; anything else is treated as a local path.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const gcsScheme = "gs://"

// fetchTimeout bounds one remote object read.
const fetchTimeout = 2 * time.Minute

// Read returns the raw bytes of a statement file.
func Read(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, gcsScheme) {
		return readGCS(ctx, uri)
	}
	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, fmt.Errorf("source: reading %s: %w", uri, err)
	}
	return data, nil
}

// Filename extracts the statement's base name from a URI or path, for
// logging and diagnostics.
func Filename(uri string) string {
	if strings.HasPrefix(uri, gcsScheme) {
		return path.Base(strings.TrimPrefix(uri, gcsScheme))
	}
	return filepath.Base(uri)
}

func readGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("source: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", uri, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", uri, err)
	}
	return data, nil
}

// parseGCSURI splits gs://bucket/path/to/object into bucket and object.
func parseGCSURI(uri string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(uri, gcsScheme)
	slash := strings.Index(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", fmt.Errorf("source: malformed GCS URI %q, want gs://bucket/object", uri)
	}
	return rest[:slash], rest[slash+1:], nil
}
