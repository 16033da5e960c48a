package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/streamwatch/watchlist-api/internal/auth"
)

// tokengen mints signed bearer tokens for local development and testing.
// The signing secret comes from AUTH_JWT_SECRET so generated tokens match
// what a locally running server accepts.
func main() {
	var (
		userID   = flag.String("user", "", "user id claim (defaults to a fresh uuid)")
		username = flag.String("username", "", "username claim (required)")
		admin    = flag.Bool("admin", false, "grant the admin claim")
		ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if *username == "" {
		flag.Usage()
		log.Fatal("missing required -username")
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatal("AUTH_JWT_SECRET is not set")
	}

	mgr, err := auth.NewManager(secret, *ttl)
	if err != nil {
		log.Fatalf("init auth manager: %v", err)
	}

	id := *userID
	if id == "" {
		id = uuid.NewString()
	}

	token, err := mgr.Issue(id, *username, *admin)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}
