// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command keygen writes a fresh RSA key pair for the session parameter.
//
// Usage:
//
//	go run ./cmd/keygen -out ./credentials/platform -bits 2048
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/taibuivan/vehicles/internal/platform/sec"
)

const (
	privateKeyFile = "rsa_private_key.pem"
	publicKeyFile  = "rsa_public_key.pem"
)

func main() {
	out := flag.String("out", "./credentials/platform", "Directory receiving the PEM files")
	bits := flag.Int("bits", 2048, "RSA modulus size")
	force := flag.Bool("force", false, "Overwrite existing key files")
	flag.Parse()

	if *bits < 1024 {
		log.Fatalf("Invalid key size: %d. Must be at least 1024", *bits)
	}

	privatePath := filepath.Join(*out, privateKeyFile)
	publicPath := filepath.Join(*out, publicKeyFile)

	if !*force {
		for _, path := range []string{privatePath, publicPath} {
			if _, err := os.Stat(path); err == nil {
				log.Fatalf("Refusing to overwrite %s (use -force)", path)
			}
		}
	}

	pair, err := sec.GenerateKeyPair(*bits)
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	privatePEM, err := pair.PrivateKeyPEM()
	if err != nil {
		log.Fatalf("Failed to encode private key: %v", err)
	}

	if err := os.MkdirAll(*out, 0o700); err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	if err := os.WriteFile(privatePath, privatePEM, 0o600); err != nil {
		log.Fatalf("Failed to write private key: %v", err)
	}
	if err := os.WriteFile(publicPath, []byte(pair.PublicKeyPEM()), 0o644); err != nil {
		log.Fatalf("Failed to write public key: %v", err)
	}

	fmt.Printf("Generated %d-bit RSA key pair:\n", *bits)
	fmt.Printf("RSA_PRIVATE_KEY_PATH=%s\n", privatePath)
	fmt.Printf("RSA_PUBLIC_KEY_PATH=%s\n", publicPath)
}
