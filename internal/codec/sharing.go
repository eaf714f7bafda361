package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// SharedMarker is the fixed literal prefix of a shared-encrypted
// token. Every clipboard-observing path whitelists tokens carrying it
// before any detection work runs. The marker (and the key-derivation
// string below) must stay stable across versions: tokens round-trip
// byte-for-byte between installations.
const SharedMarker = "CLIPGUARD-ENC:"

// sharedKeySource is the fixed application-identifying string the
// shared key is derived from.
//
// Known limitation, carried forward deliberately: the key is fixed and
// shared across all installations rather than per-user, so this scheme
// is obfuscation against casual shoulder-surfing and screen-sharing,
// not confidentiality against an attacker with access to the binary.
// Fixing it changes the wire format and breaks cross-version
// compatibility, so it must not be corrected silently; a per-user key
// can be swapped in through KeyFunc while keeping the marker.
const sharedKeySource = "clipguard-shared-clipboard-key-v1"

// KeyFunc produces the 32-byte symmetric key for the sharing
// transform. Replaceable for a hardened per-user derivation.
type KeyFunc func() []byte

// DeriveSharedKey is the default KeyFunc: SHA-256 of the fixed
// application string.
func DeriveSharedKey() []byte {
	sum := sha256.Sum256([]byte(sharedKeySource))
	return sum[:]
}

// Sharing encodes and decodes shared-encrypted clipboard tokens using
// AES-256-CBC with a fresh random IV per call.
type Sharing struct {
	keyFn KeyFunc
}

// NewSharing creates a codec over the default shared key.
func NewSharing() *Sharing {
	return &Sharing{keyFn: DeriveSharedKey}
}

// NewSharingWithKey creates a codec with a custom key source.
func NewSharingWithKey(fn KeyFunc) *Sharing {
	return &Sharing{keyFn: fn}
}

// IsEncryptedShared reports whether text is a shared-encrypted token.
// Prefix check only, O(1).
func IsEncryptedShared(text string) bool {
	return strings.HasPrefix(text, SharedMarker)
}

// EncryptForSharing produces a self-describing token of the form
// MARKER + base64(iv || ciphertext).
func (s *Sharing) EncryptForSharing(secret string) (string, error) {
	block, err := aes.NewCipher(s.keyFn())
	if err != nil {
		return "", fmt.Errorf("failed to init cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	plain := pkcs7Pad([]byte(secret), aes.BlockSize)
	encrypted := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, plain)

	payload := append(iv, encrypted...)
	return SharedMarker + base64.StdEncoding.EncodeToString(payload), nil
}

// DecryptShared reverses EncryptForSharing. Returns ok=false on any
// parse or cipher failure (missing marker, malformed base64, wrong IV
// length, padding failure) rather than erroring: a bad token must
// never crash the poll loop.
func (s *Sharing) DecryptShared(token string) (string, bool) {
	if !IsEncryptedShared(token) {
		return "", false
	}

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, SharedMarker))
	if err != nil {
		return "", false
	}
	if len(payload) < aes.BlockSize || (len(payload)-aes.BlockSize)%aes.BlockSize != 0 {
		return "", false
	}
	if len(payload) == aes.BlockSize {
		return "", false
	}

	block, err := aes.NewCipher(s.keyFn())
	if err != nil {
		return "", false
	}

	iv := payload[:aes.BlockSize]
	encrypted := payload[aes.BlockSize:]
	plain := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, encrypted)

	unpadded, ok := pkcs7Unpad(plain, aes.BlockSize)
	if !ok {
		return "", false
	}
	return string(unpadded), true
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, false
		}
	}
	return data[:len(data)-padding], true
}
