// Command session issues a bearer token for a user, creating the user if
// needed. With -admin the user is also granted the admin role.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/store"
)

func main() {
	email := flag.String("email", "", "user email (required)")
	name := flag.String("name", "", "display name for a new user")
	admin := flag.Bool("admin", false, "grant the admin role")
	ttl := flag.Duration("ttl", 24*time.Hour, "session lifetime")
	flag.Parse()

	if *email == "" {
		flag.Usage()
		log.Fatal("-email is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	session, err := store.BootstrapSession(context.Background(), db, *email, *name, *admin, *ttl)
	if err != nil {
		log.Fatalf("Create session: %v", err)
	}

	fmt.Println(session.Token)
	log.Printf("Session for %s expires at %s", session.Email, session.ExpiresAt.Format(time.RFC3339))
}
