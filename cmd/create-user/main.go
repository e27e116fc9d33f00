package main

import (
	"fmt"
	"os"

	"github.com/prince62058/Unstop-Challange/internal/auth"
	"github.com/prince62058/Unstop-Challange/internal/config"
	"github.com/prince62058/Unstop-Challange/internal/storage"
	"github.com/prince62058/Unstop-Challange/internal/storage/postgres"
)

// main 在配置的数据库中创建客服坐席账户。
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: create-user <username> <password>")
		os.Exit(1)
	}

	username := os.Args[1]
	password := os.Args[2]

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.UseDatabase() {
		fmt.Println("No database configured, set TRIAGE_DATABASE_TYPE and TRIAGE_DATABASE_DSN")
		os.Exit(1)
	}

	var store storage.Store
	switch cfg.Database.Type {
	case "mysql":
		store, err = postgres.NewMySQLStore(cfg.Database.DSN)
	default:
		store, err = postgres.NewStore(cfg.Database.DSN)
	}
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	user, err := auth.NewService(store).CreateUser(username, password)
	if err != nil {
		fmt.Printf("Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ User created successfully!\n")
	fmt.Printf("  ID:       %s\n", user.ID)
	fmt.Printf("  Username: %s\n", user.Username)
}
