// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the cryptographic primitives of the session protocol.
//
// # Architecture
//
// This package isolates security-sensitive code (RSA key handling, session
// nonces, password digests) from the domain logic. Clients encrypt a small
// `{session, timestamp}` payload with the public key; the server decrypts it
// with the private key held by [KeyPair].
package sec

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrDecryption is returned (wrapped) for every ciphertext that cannot be
// turned back into plaintext: malformed base64, wrong padding or key mismatch.
var ErrDecryption = errors.New("sec: decryption failed")

// KeyPair holds the RSA key pair that protects the session query parameter.
//
// # Padding
//
// PKCS#1 v1.5 is used in both directions, so plaintexts must be at least 11
// bytes shorter than the modulus. Session payloads are well under that bound.
type KeyPair struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	publicPEM  string
}

// LoadKeyPair reads the PEM encoded keys from disk.
//
// # Parameters
//   - privateKeyPath: PKCS#1 or PKCS#8 private key.
//   - publicKeyPath: PKIX or PKCS#1 public key. When empty, the public key is
//     derived from the private key.
func LoadKeyPair(privateKeyPath, publicKeyPath string) (*KeyPair, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read private key from %s: %w", privateKeyPath, err)
	}

	var publicKeyData []byte
	if publicKeyPath != "" {
		publicKeyData, err = os.ReadFile(publicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
		}
	}

	return ParseKeyPair(privateKeyData, publicKeyData)
}

// ParseKeyPair builds a [KeyPair] from PEM bytes. publicKeyData may be nil.
func ParseKeyPair(privateKeyData, publicKeyData []byte) (*KeyPair, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
	}

	if len(publicKeyData) == 0 {
		return NewKeyPair(privateKey)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		return nil, errors.New("sec: public key does not match private key")
	}

	return &KeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicPEM:  string(publicKeyData),
	}, nil
}

// NewKeyPair wraps an in-memory private key, deriving the public half.
func NewKeyPair(privateKey *rsa.PrivateKey) (*KeyPair, error) {
	publicPEM, err := encodePublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		publicPEM:  string(publicPEM),
	}, nil
}

// GenerateKeyPair creates a fresh RSA key pair of the given size.
func GenerateKeyPair(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to generate key: %w", err)
	}
	return NewKeyPair(privateKey)
}

// # Encryption

// Decrypt turns a base64 ciphertext into plaintext with the private key.
func (pair *KeyPair) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := decodeBase64(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, pair.privateKey, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return plaintext, nil
}

// Encrypt produces the base64 ciphertext a client would send. The server never
// needs it on the request path; tools and tests do.
func (pair *KeyPair) Encrypt(plaintext []byte) (string, error) {
	raw, err := rsa.EncryptPKCS1v15(rand.Reader, pair.publicKey, plaintext)
	if err != nil {
		return "", fmt.Errorf("sec: encryption failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// # PEM Export

// PublicKeyPEM returns the public key handed to clients.
func (pair *KeyPair) PublicKeyPEM() string {
	return pair.publicPEM
}

// PrivateKeyPEM returns the private key as a PKCS#8 PEM block.
func (pair *KeyPair) PrivateKeyPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(pair.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func encodePublicKey(publicKey *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty ciphertext")
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, encoding := range encodings {
		raw, err := encoding.DecodeString(value)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
