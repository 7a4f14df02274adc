// mintoken signs a bearer token that may call POST /u when AUTH_REQUIRED=true.
// It reads JWT_SECRET, JWT_ISSUER and JWT_TTL the same way the server does.
//
//	go run ./cmd/tools/mintoken <subject>
package main

import (
	"fmt"
	"log"
	"os"

	"zoorl.local/internal/platform/auth"
	"zoorl.local/internal/platform/config"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatal("usage: go run ./cmd/tools/mintoken <subject>")
	}
	cfg := config.Load()

	ts, err := auth.NewHS256Service(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		log.Fatal(err)
	}
	tok, err := ts.Sign(os.Args[1], auth.ScopeCreate)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok)
}
