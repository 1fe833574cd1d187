// Command secretctl manages the local encrypted secret store used when
// SECRETWATCH_SECRET_STORE=sqlite.
//
// Usage:
//
//	secretctl set NAME < value
//	secretctl list
//	secretctl delete NAME
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	sqliteadapter "github.com/ericfisherdev/secretwatch/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/secretwatch/internal/config"
	"github.com/ericfisherdev/secretwatch/internal/domain/port/driven"
)

const usage = `usage:
  secretctl set NAME      read the value from stdin and store it under NAME
  secretctl list          list stored secret names
  secretctl delete NAME   remove the secret stored under NAME`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "secretctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadStore()
	if err != nil {
		return err
	}

	db, err := sqliteadapter.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return execute(ctx, sqliteadapter.NewSecretRepo(db, cfg.SecretKey), args, stdin, stdout)
}

// execute runs one subcommand against store.
func execute(ctx context.Context, store driven.SecretAdmin, args []string, stdin io.Reader, stdout io.Writer) error {
	switch args[0] {
	case "set":
		if len(args) != 2 {
			return errors.New(usage)
		}
		value, err := readValue(stdin)
		if err != nil {
			return err
		}
		if err := store.SetSecret(ctx, args[1], value); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "stored %s\n", args[1])
		return nil

	case "list":
		if len(args) != 1 {
			return errors.New(usage)
		}
		secrets, err := store.ListSecrets(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tUPDATED")
		for _, s := range secrets {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.UpdatedAt.UTC().Format(time.RFC3339))
		}
		return tw.Flush()

	case "delete":
		if len(args) != 2 {
			return errors.New(usage)
		}
		if err := store.DeleteSecret(ctx, args[1]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "deleted %s\n", args[1])
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// readValue reads the first line of r. Trailing CR/LF is dropped so that
// `echo value | secretctl set NAME` stores exactly "value".
func readValue(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read value: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", errors.New("read value: stdin is empty")
	}
	return value, nil
}
