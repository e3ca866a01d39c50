package crate

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	ManifestName = "Cargo.toml"
	ChecksumName = ".cargo-checksum.json"
)

// Checksum is the record cargo expects beside every vendored
// manifest. Files stays empty; no digests are computed.
type Checksum struct {
	Files   map[string]string `json:"files"`
	Package string            `json:"package"`
}

func placeholderChecksum() Checksum {
	return Checksum{Files: map[string]string{}}
}

func (c Checksum) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func writeChecksum(target string, c Checksum) error {
	data, err := c.Marshal()
	if err != nil {
		return fail(KindWriteChecksum, fmt.Errorf(
			"encode %s: %w", target, err,
		))
	}

	f, err := os.OpenFile(
		target,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		0644,
	)
	if err != nil {
		return fail(KindOpenChecksum, err)
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		return fail(KindWriteChecksum, writeErr)
	}
	if closeErr != nil {
		return fail(KindWriteChecksum, closeErr)
	}
	return nil
}
