package tokenizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// publishedChecksums are the SHA-256 digests of the upstream .tiktoken files.
var publishedChecksums = map[Encoding]string{
	CL100kBase: "223921b76ee99bde995b7ff738513eef100fb51d18c93597a113bcffe865b2a7",
	O200kBase:  "446a9538cb6c348e3516120d7c08b09f57c36495e2acfffe59a5bf8b0cfb1a2d",
	P50kBase:   "94b5ca7dff4d00767bc256fdd1b27e5b17361d7b8a5f968547f9f23eb70d2069",
	R50kBase:   "306cd27f03c1a714eca7108e03d66b7dc042abe8c258b44c199a7ed9838dd930",
}

// PublishedChecksum returns the hex SHA-256 digest of the upstream vocabulary file.
func PublishedChecksum(enc Encoding) (string, bool) {
	sum, ok := publishedChecksums[enc]
	return sum, ok
}

// ValidateChecksum compares a computed digest with the one expected for enc.
// Returns an error wrapping ErrChecksumMismatch if they don't match.
func ValidateChecksum(enc Encoding, computed string) error {
	want, ok := publishedChecksums[enc]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
	}
	if computed != want {
		return &ChecksumError{Encoding: enc, Want: want, Got: computed}
	}
	return nil
}

// checksumReader hashes everything read through it.
type checksumReader struct {
	r io.Reader
	h hash.Hash
}

func newChecksumReader(r io.Reader) *checksumReader {
	h := sha256.New()
	return &checksumReader{r: io.TeeReader(r, h), h: h}
}

func (c *checksumReader) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *checksumReader) Sum() string {
	return hex.EncodeToString(c.h.Sum(nil))
}
