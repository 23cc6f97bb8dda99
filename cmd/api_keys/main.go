package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"voice-detection/db"

	"github.com/joho/godotenv"
)

// Manage the API keys the detect endpoints authenticate against.
//
//	go run . create -owner <name>
//	go run . revoke -key <key>
//	go run . list
//	go run . seed
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: go run . <create|revoke|list|seed> [flags]")
	}

	store, err := db.NewKeyStore()
	if err != nil {
		log.Fatalf("Failed to open key store: %v", err)
	}
	defer store.Close()

	switch os.Args[1] {
	case "create":
		createCmd := flag.NewFlagSet("create", flag.ExitOnError)
		owner := createCmd.String("owner", "", "Owner name recorded with the key")
		createCmd.Parse(os.Args[2:])

		if *owner == "" {
			log.Fatal("Usage: go run . create -owner <name>")
		}

		key, err := store.CreateKey(*owner)
		if err != nil {
			log.Fatalf("Failed to create key: %v", err)
		}
		fmt.Printf("Created key for %s:\n%s\n", key.Owner, key.Key)

	case "revoke":
		revokeCmd := flag.NewFlagSet("revoke", flag.ExitOnError)
		key := revokeCmd.String("key", "", "Key to revoke")
		revokeCmd.Parse(os.Args[2:])

		if *key == "" {
			log.Fatal("Usage: go run . revoke -key <key>")
		}

		if err := store.RevokeKey(*key); err != nil {
			log.Fatalf("Failed to revoke key: %v", err)
		}
		fmt.Println("Key revoked")

	case "list":
		keys, err := store.ListKeys()
		if err != nil {
			log.Fatalf("Failed to list keys: %v", err)
		}
		if len(keys) == 0 {
			fmt.Println("No keys stored")
			return
		}
		fmt.Printf("%-36s %-16s %-20s %s\n", "Key", "Owner", "Created", "Status")
		for _, k := range keys {
			status := "active"
			if k.Revoked {
				status = "revoked"
			}
			fmt.Printf("%-36s %-16s %-20s %s\n", k.Key, k.Owner, k.CreatedAt.Format("2006-01-02 15:04:05"), status)
		}

	case "seed":
		if err := db.SeedFromEnv(store); err != nil {
			log.Fatalf("Failed to seed keys: %v", err)
		}
		fmt.Println("Seeded keys from API_KEYS")

	default:
		log.Fatalf("Unknown subcommand %q, expected create, revoke, list or seed", os.Args[1])
	}
}
