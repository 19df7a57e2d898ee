package password

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrDecrypt is returned when a ciphertext cannot be decrypted.
var ErrDecrypt = errors.New("password decrypt failed")

// RSADecrypter decrypts base64 RSA ciphertexts of stored password hashes.
// It accepts both OAEP (SHA-256) and PKCS#1 v1.5 payloads.
type RSADecrypter struct {
	key *rsa.PrivateKey
}

// NewRSADecrypter wraps an already parsed private key.
func NewRSADecrypter(key *rsa.PrivateKey) *RSADecrypter {
	return &RSADecrypter{key: key}
}

// ParseRSADecrypter builds a decrypter from a PEM block holding a PKCS#1 or
// PKCS#8 private key.
func ParseRSADecrypter(pemData []byte) (*RSADecrypter, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block in private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &RSADecrypter{key: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return &RSADecrypter{key: key}, nil
}

// Decrypt returns the plaintext of a base64 ciphertext.
func (d *RSADecrypter) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	if plain, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, d.key, raw, nil); err == nil {
		return string(plain), nil
	}
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, d.key, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plain), nil
}
