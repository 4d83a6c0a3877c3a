// Command devtoken mints a bearer token for local testing. Accounts are
// managed outside this service, so this is the only way to obtain one
// without an identity provider.
//
//	go run ./cmd/devtoken -user alice -email alice@example.com -name Alice
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/splitbill/internal/auth"
	"github.com/mmynk/splitbill/internal/models"
)

func main() {
	var (
		caller  models.Caller
		ttl     time.Duration
		envFile string
	)
	flag.StringVar(&caller.UserID, "user", "", "user ID (required)")
	flag.StringVar(&caller.Email, "email", "", "email claim")
	flag.StringVar(&caller.DisplayName, "name", "", "display name claim")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file to read JWT_SECRET from")
	flag.Parse()

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" || caller.UserID == "" {
		fmt.Fprintln(os.Stderr, "devtoken: JWT_SECRET and -user are required")
		os.Exit(2)
	}

	token, err := auth.NewJWTManager(secret, ttl).Generate(caller)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
