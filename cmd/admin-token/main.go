// Command admin-token signs a local access token for an existing account.
// The server resolves the role from the stored account, so the user ID must
// belong to an admin for admin routes to accept the token.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/forgo/kinship/api/pkg/jwt"
)

func main() {
	privateKeyPath := flag.String("key", "./keys/private.pem", "Path to JWT private key")
	userID := flag.String("user", "", "ID of the account the token is issued for (required)")
	email := flag.String("email", "admin@kinship.dev", "Email for the token")
	issuer := flag.String("issuer", "kinship.forgo.software", "JWT issuer")
	expMins := flag.Int("exp", 60*24, "Token expiration in minutes (default: 1 day)")
	baseURL := flag.String("url", "http://localhost:8080", "API base URL used in the usage hint")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Error: -user is required")
		flag.Usage()
		os.Exit(2)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nMake sure you have generated keys with: make keys-generate\n")
		os.Exit(1)
	}

	token, err := jwtService.Sign(jwt.Claims{
		UserID: *userID,
		Email:  *email,
		Role:   "admin",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"email":        *email,
		})
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Access Token Generated")
	fmt.Println("======================")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Email:    %s\n", *email)
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s...' %s/api/admin/users\n", token[:min(len(token), 50)], *baseURL)
}
