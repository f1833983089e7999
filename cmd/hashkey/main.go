// Package main prints the argon2id hash to set as API_KEY_HASH.
//
// Usage:
//
//	hashkey -generate           # new key and its hash
//	hashkey crm_...             # hash an existing key
//	echo crm_... | hashkey      # same, key on stdin
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graphcrm/graphcrm/internal/auth"
)

type output struct {
	Key  string `json:"api_key,omitempty"`
	Hash string `json:"api_key_hash"`
}

func main() {
	var (
		generate = flag.Bool("generate", false, "Generate a new API key")
		format   = flag.String("format", "env", "Output format: env or json")
	)
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, os.Stderr, *generate, *format, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(stdin io.Reader, stdout, stderr io.Writer, generate bool, format string, args []string) error {
	if format != "env" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	var out output
	if generate {
		generated, err := auth.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate api key: %w", err)
		}
		out = output{Key: generated.Plaintext, Hash: generated.Hash}
	} else {
		key, err := readKey(stdin, args)
		if err != nil {
			return err
		}
		if !auth.ValidateKeyFormat(key) {
			fmt.Fprintf(stderr, "warning: key does not match %s<32 hex chars>\n", auth.KeyPrefix)
		}
		hash, err := auth.HashKey(key)
		if err != nil {
			return fmt.Errorf("hash api key: %w", err)
		}
		out = output{Hash: hash}
	}

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Key != "" {
		fmt.Fprintf(stdout, "API_KEY=%s\n", out.Key)
	}
	// Single quotes keep the $ separators intact in shells and .env files.
	_, err := fmt.Fprintf(stdout, "API_KEY_HASH='%s'\n", out.Hash)
	return err
}

func readKey(stdin io.Reader, args []string) (string, error) {
	if len(args) > 1 {
		return "", errors.New("expected one key argument")
	}
	if len(args) == 1 {
		return nonEmpty(args[0])
	}

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read key: %w", err)
	}
	return nonEmpty(line)
}

func nonEmpty(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("no key given; pass it as an argument, on stdin, or use -generate")
	}
	return key, nil
}
