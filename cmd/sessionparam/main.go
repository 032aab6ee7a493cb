// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command sessionparam prints an encrypted session query parameter for manual
// testing of the /vehicles endpoints.
//
// Usage:
//
//	go run ./cmd/sessionparam -session <token> -key ./credentials/platform/rsa_private_key.pem
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/taibuivan/vehicles/internal/platform/constants"
	"github.com/taibuivan/vehicles/internal/platform/middleware"
	"github.com/taibuivan/vehicles/internal/platform/sec"
)

func main() {
	session := flag.String("session", "", "Session token returned by login or register")
	keyPath := flag.String("key", "./credentials/platform/rsa_private_key.pem", "Private key PEM file")
	offset := flag.Duration("offset", 0, "Shift applied to the embedded timestamp")
	flag.Parse()

	if *session == "" {
		flag.Usage()
		os.Exit(1)
	}

	pair, err := sec.LoadKeyPair(*keyPath, "")
	if err != nil {
		log.Fatalf("Failed to load key: %v", err)
	}

	param, err := middleware.SealSession(pair, *session, time.Now().Add(*offset))
	if err != nil {
		log.Fatalf("Failed to seal session: %v", err)
	}

	fmt.Printf("%s=%s\n", constants.SessionQueryParam, param)
}
