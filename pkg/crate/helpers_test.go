package crate

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rogpeppe/go-internal/txtar"
	"github.com/stretchr/testify/require"
)

// fromTxtar turns a txtar listing into tar headers and
// bodies. Names ending in "/" become directory entries.
func fromTxtar(t *testing.T, listing string) []testEntry {
	t.Helper()
	ar := txtar.Parse([]byte(listing))
	var entries []testEntry
	for _, f := range ar.Files {
		if strings.HasSuffix(f.Name, "/") {
			entries = append(entries, testEntry{
				hdr: &tar.Header{
					Typeflag: tar.TypeDir,
					Name:     f.Name,
					Mode:     0755,
				},
			})
			continue
		}
		entries = append(entries, testEntry{
			hdr: &tar.Header{
				Typeflag: tar.TypeReg,
				Name:     f.Name,
				Mode:     0644,
				Size:     int64(len(f.Data)),
			},
			body: f.Data,
		})
	}
	return entries
}

type testEntry struct {
	hdr  *tar.Header
	body []byte
}

func rawTar(t *testing.T, entries []testEntry, finish bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(e.hdr))
		if len(e.body) > 0 {
			_, err := tw.Write(e.body)
			require.NoError(t, err)
		}
	}
	if finish {
		require.NoError(t, tw.Close())
	} else {
		require.NoError(t, tw.Flush())
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func writeCrate(t *testing.T, entries []testEntry) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "my.crate")
	data := gzipBytes(t, rawTar(t, entries, true))
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}
