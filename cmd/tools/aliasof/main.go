// aliasof prints the alias each URL maps to and the expiry a create call
// made now would get.
//
//	go run ./cmd/tools/aliasof [-ttl hours] <url>...
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"zoorl.local/internal/app/alias"
)

func main() {
	ttl := flag.Int("ttl", alias.DefaultTTLHours, "ttl in hours")
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("usage: aliasof [-ttl hours] <url>...")
	}
	if err := alias.ValidateTTL(*ttl); err != nil {
		log.Fatalf("ttl %d: %v", *ttl, err)
	}

	now := time.Now()
	for _, u := range flag.Args() {
		if err := alias.ValidateURL(u); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", u, err)
			continue
		}
		expiry := alias.ComputeExpiry(now, *ttl)
		fmt.Printf("%s\t%s\t%s\n", alias.ComputeAlias(u), time.Unix(expiry, 0).UTC().Format(time.RFC3339), u)
	}
}
