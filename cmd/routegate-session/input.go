package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MrEthical07/routegate/session"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func (c *cli) readPassword() (string, error) {
	if c.password != "" {
		return c.password, nil
	}
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(c.err, "Password: ")
	pw, err := readPassword(fd)
	fmt.Fprintln(c.err)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func printProfile(w io.Writer, p session.UserProfile) error {
	if !p.Present() {
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, p, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
