// Package main provides a tool to seed the database with demo users, prompts
// and social activity.
//
// Stop the server first: the seeder opens the same database and search index.
//
// Usage:
//
//	go run ./cmd/seed --users 8 --prompts 40
//	go run ./cmd/seed --env-file .env.local --seed 7
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
