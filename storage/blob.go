package storage

import (
	"bytes"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mr-tron/base58"

	"github.com/vocdoni/sealed-tally/types"
)

const (
	// cidContentLen is the size of the folded content hash of a CID.
	cidContentLen = 28
	cidLen        = cidContentLen + types.CIDExtensionLen

	defaultMaxBlobSize = types.MaxMetadataSize
	metadataFilename   = "metadata.json"
)

var (
	// ErrInvalidCID is returned when a content identifier cannot be decoded.
	ErrInvalidCID = errors.New("invalid content identifier")
	// ErrInvalidExtension is returned when the file extension does not fit
	// in a content identifier.
	ErrInvalidExtension = errors.New("invalid extension")
	// ErrBlobTooLarge is returned when a blob exceeds the maximum size.
	ErrBlobTooLarge = errors.New("blob too large")
)

// hash224 folds the SHA-512 digest of data into 28 bytes by XOR-ing its
// first 28 bytes, the next 28 bytes and the last 8 bytes left padded with
// zeros.
func hash224(data []byte) []byte {
	h := sha512.Sum512(data)
	out := make([]byte, cidContentLen)
	tail := h[2*cidContentLen:]
	offset := cidContentLen - len(tail)
	for i := range out {
		out[i] = h[i] ^ h[cidContentLen+i]
		if i >= offset {
			out[i] ^= tail[i-offset]
		}
	}
	return out
}

func encodeExtension(name string) ([]byte, error) {
	ext := []byte(strings.TrimPrefix(filepath.Ext(name), "."))
	if len(ext) > types.CIDExtensionLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	buf := make([]byte, types.CIDExtensionLen)
	copy(buf[types.CIDExtensionLen-len(ext):], ext)
	return buf, nil
}

// ContentID returns the content identifier of a file: the base58 encoding of
// the folded content hash followed by the file extension.
func ContentID(name string, data []byte) (string, error) {
	ext, err := encodeExtension(name)
	if err != nil {
		return "", err
	}
	return base58.Encode(append(hash224(data), ext...)), nil
}

func decodeCID(cid string) ([]byte, error) {
	raw, err := base58.Decode(cid)
	if err != nil || len(raw) != cidLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCID, cid)
	}
	return raw, nil
}

// Filename returns the file name of a content identifier: the base58
// content hash and the extension.
func Filename(cid string) (string, error) {
	raw, err := decodeCID(cid)
	if err != nil {
		return "", err
	}
	ext := bytes.TrimLeft(raw[cidContentLen:], "\x00")
	if !utf8.Valid(ext) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtension, ext)
	}
	return fmt.Sprintf("%s.%s", base58.Encode(raw[:cidContentLen]), ext), nil
}

// SetBlob stores a file and returns its content identifier. Storing the
// same content twice is a no-op.
func (s *Storage) SetBlob(name string, data []byte) (string, error) {
	if len(data) > s.maxBlobSize {
		return "", fmt.Errorf("%w: %d bytes, max %d", ErrBlobTooLarge, len(data), s.maxBlobSize)
	}
	cid, err := ContentID(name, data)
	if err != nil {
		return "", err
	}
	key, err := decodeCID(cid)
	if err != nil {
		return "", err
	}
	if err := s.setArtifact(blobPrefix, key, data); err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return cid, nil
}

// Blob returns the content of a file by its content identifier.
func (s *Storage) Blob(cid string) ([]byte, error) {
	key, err := decodeCID(cid)
	if err != nil {
		return nil, err
	}
	var data []byte
	if err := s.getArtifact(blobPrefix, key, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// SetMetadata stores the proposal metadata as a JSON blob and returns its
// content identifier.
func (s *Storage) SetMetadata(metadata *types.Metadata) (string, error) {
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return s.SetBlob(metadataFilename, data)
}

// Metadata retrieves the proposal metadata stored with SetMetadata.
func (s *Storage) Metadata(cid string) (*types.Metadata, error) {
	data, err := s.Blob(cid)
	if err != nil {
		return nil, err
	}
	metadata := &types.Metadata{}
	if err := json.Unmarshal(data, metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return metadata, nil
}
