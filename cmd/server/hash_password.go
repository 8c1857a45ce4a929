package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/example/storefront-promo/internal/utils"
)

// runHashPassword reads one password line from in and writes its bcrypt
// hash to out, ready to paste into ADMIN_PASSWORD_HASH.
func runHashPassword(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	var password string
	if scanner.Scan() {
		password = strings.TrimRight(scanner.Text(), "\r")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
