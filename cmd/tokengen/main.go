package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/af-corp/debug-relay/internal/auth"
	"github.com/af-corp/debug-relay/internal/config"
)

func main() {
	subject := flag.String("sub", "", "user ID to put in the token subject (required)")
	email := flag.String("email", "", "email claim (optional)")
	role := flag.String("role", "authenticated", "role claim")
	issuer := flag.String("iss", "", "issuer claim")
	audience := flag.String("aud", "authenticated", "audience claim")
	expires := flag.String("expires", "1h", "token lifetime (e.g., 1h, 30m, 7d)")
	flag.Parse()

	_ = godotenv.Load()

	if *subject == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nerror: -sub is required")
		os.Exit(1)
	}
	secret := os.Getenv(config.EnvJWTSecret)
	if secret == "" {
		log.Fatalf("%s is not set", config.EnvJWTSecret)
	}

	ttl, err := auth.ParseDuration(*expires)
	if err != nil {
		log.Fatalf("invalid expires: %v", err)
	}

	token, err := auth.IssueToken([]byte(secret), *subject, auth.IssueOptions{
		Email:    *email,
		Role:     *role,
		Issuer:   *issuer,
		Audience: *audience,
		TTL:      ttl,
	})
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "subject %s, role %s, expires %s\n", *subject, *role, time.Now().Add(ttl).Format(time.RFC3339))
	fmt.Println(token)
}
