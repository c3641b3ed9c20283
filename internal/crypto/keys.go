package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyPair holds the process-wide RSA signing material. It is loaded once at
// startup and is read-only afterwards, so it is safe for unsynchronized
// concurrent use by any number of request handlers.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeyPair decodes a base64-encoded PEM private/public key pair from
// configuration. Any missing or malformed input is a hard error; the process
// must not start without usable key material.
func LoadKeyPair(privateB64, publicB64 string) (*KeyPair, error) {
	if privateB64 == "" || publicB64 == "" {
		return nil, errors.New("signing key material is not configured")
	}

	priv, err := parsePrivateKey(privateB64)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	pub, err := parsePublicKey(publicB64)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}

	return &KeyPair{Private: priv, Public: pub}, nil
}

func parsePrivateKey(b64 string) (*rsa.PrivateKey, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not RSA")
	}
	return key, nil
}

func parsePublicKey(b64 string) (*rsa.PublicKey, error) {
	pemBytes, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("key is not RSA")
	}
	return key, nil
}

// GenerateKeyPair generates a fresh RSA key pair. Used by tests and by the
// keygen helper; production keys come from configuration.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Private: priv, Public: &priv.PublicKey}, nil
}

// EncodeKeyPair renders a key pair as the base64 PEM strings the
// configuration layer expects. The inverse of LoadKeyPair.
func EncodeKeyPair(kp *KeyPair) (privateB64, publicB64 string, err error) {
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(kp.Private),
	})
	pubBytes, err := x509.MarshalPKIXPublicKey(kp.Public)
	if err != nil {
		return "", "", err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	return base64.StdEncoding.EncodeToString(privPEM),
		base64.StdEncoding.EncodeToString(pubPEM), nil
}
