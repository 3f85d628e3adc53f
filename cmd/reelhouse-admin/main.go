// Package main is the entry point for the Reelhouse admin CLI.
// It provides user management commands for operators: creating the
// first admin account, listing users, and promoting existing ones.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/prn-tf/reelhouse/internal/audit"
	"github.com/prn-tf/reelhouse/internal/config"
	"github.com/prn-tf/reelhouse/internal/repository"
	"github.com/prn-tf/reelhouse/internal/repository/postgres"
	"github.com/prn-tf/reelhouse/internal/repository/sqlite"
	"github.com/prn-tf/reelhouse/internal/service"
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

	switch os.Args[1] {
	case "version":
		fmt.Printf("Reelhouse Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		if err := runUserCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runUserCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("user subcommand required: create, list, or promote")
	}

	ctx := context.Background()

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		username := fs.String("username", "", "username (required)")
		email := fs.String("email", "", "email address (required)")
		password := fs.String("password", "", "password (required)")
		admin := fs.Bool("admin", false, "grant admin privileges")
		fs.Parse(args[1:])

		if *username == "" || *email == "" || *password == "" {
			return fmt.Errorf("--username, --email and --password are required")
		}

		repos, closeDB, err := openRepositories(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeDB()

		users := service.NewUserService(repos.User, audit.NopRecorder{}, zerolog.Nop())
		user, err := users.Create(ctx, service.CreateUserInput{
			Username: *username,
			Email:    *email,
			Password: *password,
			IsAdmin:  *admin,
		}, service.Actor{})
		if err != nil {
			return err
		}

		fmt.Printf("Created user %q (id=%d, admin=%t)\n", user.Username, user.ID, user.IsAdmin)
		return nil

	case "list":
		fs := flag.NewFlagSet("user list", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		fs.Parse(args[1:])

		repos, closeDB, err := openRepositories(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeDB()

		users, err := repos.User.List(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tADMIN\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n",
				u.ID, u.Username, u.Email, u.IsAdmin, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()

	case "promote":
		fs := flag.NewFlagSet("user promote", flag.ExitOnError)
		configPath := fs.String("config", "", "path to configuration file")
		username := fs.String("username", "", "username to promote (required)")
		fs.Parse(args[1:])

		if *username == "" {
			return fmt.Errorf("--username is required")
		}

		repos, closeDB, err := openRepositories(ctx, *configPath)
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := repos.User.GetByUsername(ctx, *username)
		if err != nil {
			return fmt.Errorf("user %q not found", *username)
		}
		if user.IsAdmin {
			fmt.Printf("User %q is already an admin\n", user.Username)
			return nil
		}

		user.IsAdmin = true
		if err := repos.User.Update(ctx, user); err != nil {
			return err
		}

		fmt.Printf("Promoted user %q to admin\n", user.Username)
		return nil

	default:
		return fmt.Errorf("unknown user subcommand: %s", args[0])
	}
}

// openRepositories connects to the configured database and runs startup
// migrations, so the CLI works against a fresh data directory too.
func openRepositories(ctx context.Context, configPath string) (*repository.Repositories, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger := zerolog.Nop()

	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewRepositories(db), func() { db.Close() }, nil
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewRepositories(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

func printUsage() {
	fmt.Println(`Reelhouse Admin CLI

Usage:
  reelhouse-admin <command> [arguments]

Commands:
  user        Manage users (create, list, promote)
  version     Print version information
  help        Show this help message

Examples:
  reelhouse-admin user create --username admin --email admin@example.com --password secret --admin
  reelhouse-admin user list
  reelhouse-admin user promote --username alice

Use "reelhouse-admin user <subcommand> --help" for more information.`)
}
