// Package crypto provides the symmetric cipher used to protect stored
// provider credentials at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

const nonceSize = 12
const versionMagic = byte('T')

// SymmetricCipher encrypts and decrypts values with additional
// authenticated data binding the ciphertext to its owning record.
type SymmetricCipher interface {
	Encrypt(aad, plainText []byte) ([]byte, error)
	Decrypt(aad, packedText []byte) ([]byte, error)
}

type symmetric struct {
	aesgcm cipher.AEAD
}

// NewSymmetric creates an AES-GCM cipher from a 16, 24, or 32 byte key.
func NewSymmetric(key []byte) (SymmetricCipher, error) {
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(c)
	if err != nil {
		return nil, err
	}

	return &symmetric{aesgcm: aesgcm}, nil
}

// RandomBytes returns size cryptographically random bytes.
func RandomBytes(size int) ([]byte, error) {
	value := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, value); err != nil {
		return nil, err
	}
	return value, nil
}

func (s *symmetric) Encrypt(aad, plainText []byte) ([]byte, error) {
	// Never use more than 2^32 random nonces with a given key because of
	// the risk of a repeat.
	nonce, err := RandomBytes(nonceSize)
	if err != nil {
		return nil, err
	}

	sealed := s.aesgcm.Seal(nil, nonce, plainText, aad)
	return pack(sealed, nonce), nil
}

func (s *symmetric) Decrypt(aad, packedText []byte) ([]byte, error) {
	sealed, nonce, err := unpack(packedText)
	if err != nil {
		return nil, err
	}
	return s.aesgcm.Open(nil, nonce, sealed, aad)
}

// Packed layout: VERSION_MAGIC || nonce || ciphertext+tag
func pack(sealed, nonce []byte) []byte {
	data := make([]byte, 1+nonceSize+len(sealed))
	data[0] = versionMagic
	copy(data[1:], nonce[:nonceSize])
	copy(data[1+nonceSize:], sealed)
	return data
}

func unpack(packedText []byte) (sealed, nonce []byte, err error) {
	if len(packedText) < 1+nonceSize+aes.BlockSize {
		return nil, nil, errors.New("ciphertext is too short")
	}
	if packedText[0] != versionMagic {
		return nil, nil, errors.New("unrecognized ciphertext version")
	}
	nonce = packedText[1 : 1+nonceSize]
	sealed = packedText[1+nonceSize:]
	return sealed, nonce, nil
}
