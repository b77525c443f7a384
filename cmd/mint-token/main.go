package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/catalogodata/catalogo_backend/config"
	"github.com/catalogodata/catalogo_backend/utils"
	"github.com/google/uuid"
)

// Mints credentials for local development and smoke tests: either a bearer
// JWT or an opaque session token stored in Redis the way the login flow
// would store it.
func main() {
	ownerID := flag.String("owner-id", "", "Required: owner id the token acts as")
	username := flag.String("username", "dev", "Username embedded in the token")
	role := flag.String("role", "user", "Role claim (user or admin)")
	opaque := flag.Bool("session", false, "Mint a Redis-backed session token instead of a JWT")
	ttl := flag.Duration("ttl", 24*time.Hour, "Session token lifetime (ignored for JWT)")
	flag.Parse()

	if strings.TrimSpace(*ownerID) == "" {
		fmt.Fprintln(os.Stderr, "--owner-id is required")
		os.Exit(1)
	}

	if *opaque {
		config.ConnectRedisWithRetry()

		token := uuid.NewString()
		value := *ownerID + "|" + *username
		if err := config.SetRedisValue("Token:"+token, value, *ttl); err != nil {
			fmt.Fprintf(os.Stderr, "failed to store session token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	token, err := utils.JwtGenerate(*ownerID, *username, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
