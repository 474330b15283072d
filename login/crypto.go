package login

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"math/big"
)

// encryptPassword RSA-OAEP-SHA1-encrypts password against the server-
// supplied (modulus, exponent) pair and base64-encodes the ciphertext
// (§4.10 "RSA fetch ... RSA-encrypt the UTF-8 password with PKCS#1-OAEP
// padding"). This deliberately diverges from steamsession/crypto.go's
// PKCS1v15 password encryption — see DESIGN.md — matching instead the OAEP
// scheme transport/crypto.go already uses for the handshake session key.
func encryptPassword(password, modHex string, exp int64) (string, error) {
	var n big.Int
	if _, ok := n.SetString(modHex, 16); !ok {
		return "", fmt.Errorf("login: invalid RSA modulus %q", modHex)
	}

	pub := &rsa.PublicKey{N: &n, E: int(exp)}
	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, []byte(password), nil)
	if err != nil {
		return "", fmt.Errorf("login: rsa OAEP encrypt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
