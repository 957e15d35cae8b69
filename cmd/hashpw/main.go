// Command hashpw prints a user:bcrypt-hash entry for AUTH_USERS.
//
//	hashpw -user ana < password.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	user := flag.String("user", "", "username")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if *user == "" || strings.ContainsAny(*user, ":,") {
		fmt.Fprintln(os.Stderr, "hashpw: -user is required and must not contain ':' or ','")
		os.Exit(2)
	}

	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && password == "" {
		fmt.Fprintln(os.Stderr, "hashpw: read password from stdin:", err)
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
	fmt.Printf("%s:%s\n", *user, hash)
}
