// Command hashtoken prints the bcrypt hash of an organizer token for
// SQUASH_SERVER_ORGANIZER_HASH. The token is read from the first argument,
// or from stdin when no argument is given.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"squashledger/internal/adapters/http/middleware"
)

func main() {
	token := ""
	if len(os.Args) > 1 {
		token = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashtoken <token>  (or pipe the token on stdin)")
			os.Exit(2)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		fmt.Fprintln(os.Stderr, "token must not be empty")
		os.Exit(2)
	}

	hash, err := middleware.HashToken(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
