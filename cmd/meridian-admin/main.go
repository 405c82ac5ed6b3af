// Package main is the entry point for the Meridian accounts admin CLI.
// It provides operational commands: schema migration, seeding an initial
// account, and RSA signing key generation.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/meridian-accounts/internal/config"
	"github.com/prn-tf/meridian-accounts/internal/database"
	"github.com/prn-tf/meridian-accounts/internal/domain"
	"github.com/prn-tf/meridian-accounts/internal/lock"
	"github.com/prn-tf/meridian-accounts/internal/pkg/crypto"
	"github.com/prn-tf/meridian-accounts/internal/repository"
	"github.com/prn-tf/meridian-accounts/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "migrate":
		err = runMigrate(os.Args[2:])

	case "seed":
		err = runSeed(os.Args[2:])

	case "keygen":
		err = runKeygen(os.Args[2:])

	case "version":
		fmt.Println("Meridian Accounts Admin CLI")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runMigrate applies pending schema migrations.
func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args)

	cfg := config.MustLoad(*configPath)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	fmt.Println("migrations applied")
	return nil
}

// runSeed creates an initial account through the full service path, so the
// secret is hashed and uniqueness enforced exactly as in production.
func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	username := fs.String("username", "", "username for the seed account")
	email := fs.String("email", "", "email for the seed account")
	password := fs.String("password", "", "password for the seed account")
	_ = fs.Parse(args)

	if *username == "" || *email == "" || *password == "" {
		return fmt.Errorf("seed requires --username, --email and --password")
	}

	cfg := config.MustLoad(*configPath)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	accounts := service.NewAccountService(
		db,
		repository.NewAccountRepository(),
		crypto.NewHasher(crypto.DefaultHashParams()),
		lock.NewNoOpLocker(),
		cfg.Lock.TTL,
		cfg.Defaults.ProfilePictureURL,
		logger,
	)

	created, err := accounts.Insert(ctx, domain.NewAccount(*username, *email, *password))
	if err != nil {
		return err
	}

	fmt.Printf("account created: id=%d username=%s\n", created.ID, created.Username)
	return nil
}

// runKeygen writes a fresh RSA keypair in PEM format to the configured
// signing key paths.
func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	bits := fs.Int("bits", 2048, "RSA key size in bits")
	_ = fs.Parse(args)

	cfg := config.MustLoad(*configPath)

	key, err := rsa.GenerateKey(rand.Reader, *bits)
	if err != nil {
		return err
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(cfg.Auth.PrivateKeyPath, privPEM, 0o600); err != nil {
		return err
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(cfg.Auth.PublicKeyPath, pubPEM, 0o644); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s\n", cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath)
	return nil
}

func printUsage() {
	fmt.Println(`Meridian Accounts Admin CLI

Usage:
  meridian-admin <command> [arguments]

Commands:
  migrate     Apply pending schema migrations
  seed        Create an initial account
  keygen      Generate RSA signing keys at the configured paths
  version     Print version information
  help        Show this help message

Examples:
  meridian-admin migrate --config configs/config.yaml
  meridian-admin seed --username admin --email admin@example.com --password <secret>
  meridian-admin keygen --bits 4096

Use "meridian-admin <command> --help" for more information about a command.`)
}
