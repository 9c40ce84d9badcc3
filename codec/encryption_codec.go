package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
)

// MetadataEncodingEncrypted marks a payload whose Data field is AES-GCM
// ciphertext of a marshalled Payload.
const MetadataEncodingEncrypted = "binary/encrypted"

// EncryptionCodec implements converter.PayloadCodec. Fulfillment workflow
// inputs carry order and customer identifiers, so payloads are encrypted
// at rest in Temporal's history.
type EncryptionCodec struct {
	aead cipher.AEAD
}

// NewEncryptionCodec builds a codec around a 32-byte AES-256 key. The AEAD
// is prepared once here rather than per payload.
func NewEncryptionCodec(key []byte) (*EncryptionCodec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes for AES-256, got %d bytes", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &EncryptionCodec{aead: aead}, nil
}

// ParseKey decodes a hex-encoded AES-256 key, the format used by the
// ENCRYPTION_KEY environment variable.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func encrypted(p *commonpb.Payload) bool {
	return p.Metadata != nil && string(p.Metadata["encoding"]) == MetadataEncodingEncrypted
}

// Encode encrypts each payload that is not already encrypted. The whole
// payload, metadata included, goes through the cipher so the original
// encoding is not visible in history.
func (e *EncryptionCodec) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, payload := range payloads {
		if encrypted(payload) {
			result[i] = payload
			continue
		}
		plain, err := payload.Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		sealed, err := e.seal(plain)
		if err != nil {
			return nil, fmt.Errorf("encrypt payload: %w", err)
		}
		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{"encoding": []byte(MetadataEncodingEncrypted)},
			Data:     sealed,
		}
	}
	return result, nil
}

// Decode reverses Encode, passing through payloads that are not encrypted.
func (e *EncryptionCodec) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, payload := range payloads {
		if !encrypted(payload) {
			result[i] = payload
			continue
		}
		plain, err := e.open(payload.Data)
		if err != nil {
			return nil, fmt.Errorf("decrypt payload: %w", err)
		}
		inner := &commonpb.Payload{}
		if err := inner.Unmarshal(plain); err != nil {
			return nil, fmt.Errorf("unmarshal decrypted payload: %w", err)
		}
		result[i] = inner
	}
	return result, nil
}

// seal prepends a fresh random nonce to the GCM ciphertext.
func (e *EncryptionCodec) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *EncryptionCodec) open(ciphertext []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, errors.New("ciphertext too short")
	}
	return e.aead.Open(nil, ciphertext[:n], ciphertext[n:], nil)
}

// NewEncryptionDataConverter wraps the default data converter with the
// encryption codec.
func NewEncryptionDataConverter(key []byte) (converter.DataConverter, error) {
	c, err := NewEncryptionCodec(key)
	if err != nil {
		return nil, err
	}
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c), nil
}
