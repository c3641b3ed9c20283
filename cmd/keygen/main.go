// Command keygen generates an RSA signing key pair and prints it in the
// base64 PEM form the server expects in JWT_PRIVATE_KEY / JWT_PUBLIC_KEY.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/shopd-io/shopd/internal/crypto"
)

func main() {
	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate key pair")
	}
	privB64, pubB64, err := crypto.EncodeKeyPair(keys)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode key pair")
	}

	fmt.Fprintf(os.Stdout, "JWT_PRIVATE_KEY=%s\n", privB64)
	fmt.Fprintf(os.Stdout, "JWT_PUBLIC_KEY=%s\n", pubB64)
}
