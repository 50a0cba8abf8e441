/*
Package snapshot
File: share.go
Description:
    Share strings: gzip-compressed snapshot JSON in standard base64, the
    same format a browser produces with CompressionStream("gzip") and btoa.
*/

package snapshot

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/everforgeworks/gemini-farm/internal/game"
)

// ErrTransport covers share strings that are not base64 or not gzip.
var ErrTransport = errors.New("share string could not be decoded")

// maxExpanded bounds decompression of untrusted share strings.
const maxExpanded = 32 << 20

// Compress gzips snapshot JSON and base64-encodes it into a string that
// can be pasted anywhere text goes.
func Compress(data []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(data); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Expand is the inverse of Compress.
func Expand(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxExpanded+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(out) > maxExpanded {
		return nil, fmt.Errorf("%w: expanded save exceeds %d bytes", ErrTransport, maxExpanded)
	}
	return out, nil
}

// DecodeShared expands and decodes a share string with the default codec.
func DecodeShared(s string) (game.World, error) {
	return Default().DecodeShared(s)
}

// DecodeShared expands a share string and decodes it.
func (c *Codec) DecodeShared(s string) (game.World, error) {
	data, err := Expand(s)
	if err != nil {
		return game.World{}, err
	}
	return c.Decode(data)
}

// DecodeAny accepts either raw snapshot JSON or a share string. Anything
// that starts with "{" is treated as JSON.
func (c *Codec) DecodeAny(s string) (game.World, error) {
	if t := strings.TrimSpace(s); strings.HasPrefix(t, "{") {
		return c.Decode([]byte(t))
	}
	return c.DecodeShared(s)
}
