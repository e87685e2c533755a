// Command mkpasswd reads a password from the terminal and prints its bcrypt
// hash. Handy for seeding an admin account straight into the users table.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	cost := flag.Int("c", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Fatalf("error reading password: %v", err)
	}
	if len(password) == 0 {
		log.Fatal("empty password")
	}

	hash, err := bcrypt.GenerateFromPassword(password, *cost)
	if err != nil {
		log.Fatalf("error hashing password: %v", err)
	}

	fmt.Println(string(hash))
}
