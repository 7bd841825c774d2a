package main

import (
	"fmt"
	"os"

	"github.com/habitra/import-server-go/internal/util"
)

// Prints a fresh API token and its hash. Store the hash in
// accounts.token_hash and hand out the token.
func main() {
	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("token: %s\n", token)
	fmt.Printf("hash:  %s\n", util.HashToken(token))
}
