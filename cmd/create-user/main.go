package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/config"
	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-user/main.go <name> <email> <api-key> [--admin]")
		fmt.Println("Example: go run cmd/create-user/main.go \"Fresh Foods Co\" \"orders@freshfoods.example\" \"ff-api-key-12345\"")
		os.Exit(1)
	}

	name := os.Args[1]
	email := os.Args[2]
	apiKey := os.Args[3]
	isAdmin := len(os.Args) > 4 && os.Args[4] == "--admin"

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	repos := postgres.NewRepositories(db, logger)

	user := &domain.User{
		Name:       name,
		Email:      email,
		APIKeyHash: string(apiKeyHash),
		IsAdmin:    isAdmin,
		IsActive:   true,
	}

	err = repos.Users.Create(context.Background(), user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ User created successfully!\n\n")
	fmt.Printf("User ID: %s\n", user.ID.String())
	fmt.Printf("Name: %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Admin: %v\n", user.IsAdmin)
	fmt.Printf("API Key: %s\n", apiKey)
	fmt.Printf("\n⚠️  IMPORTANT: Save this API key securely! You won't be able to see it again.\n")
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
