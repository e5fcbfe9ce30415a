// Command issue-token prints a bearer token signed with JWT_SECRET for local
// development against the API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	subject := flag.String("sub", "", "owner id to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if strings.TrimSpace(secret) == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if strings.TrimSpace(*subject) == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-token -sub <owner-id> [-ttl 24h]")
		os.Exit(2)
	}

	token, err := auth.NewVerifier(secret).Issue(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
