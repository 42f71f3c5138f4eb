// Command admin runs maintenance tasks against the configured database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"librarydesk_backend/internals/configs"
	"librarydesk_backend/internals/constants"
	database "librarydesk_backend/internals/databases"
	"librarydesk_backend/internals/features/subscriptions/subscriptions/scheduler"
	authModel "librarydesk_backend/internals/features/users/auth/model"
	authService "librarydesk_backend/internals/features/users/auth/service"
	"librarydesk_backend/internals/seeds"
)

func openDB() (*gorm.DB, error) {
	configs.LoadEnv()
	return database.Open(configs.DatabaseDSN())
}

func main() {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "LibraryDesk maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(), createOwnerCmd(), sweepCmd(), seedCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and partial indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}

func createOwnerCmd() *cobra.Command {
	var library, tz, name, email, password string
	cmd := &cobra.Command{
		Use:   "create-owner",
		Short: "Create a library with its owner account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			user := authModel.UserModel{
				UserName:     strings.TrimSpace(name),
				UserEmail:    strings.ToLower(strings.TrimSpace(email)),
				UserRole:     constants.RoleOwner,
				UserIsActive: true,
			}
			if err := user.SetPassword(password); err != nil {
				return err
			}
			lib, err := authService.CreateLibraryWithOwner(cmd.Context(), db, library, tz, &user)
			if err != nil {
				return err
			}
			log.Printf("✅ library %s (%s) owner %s", lib.LibraryName, lib.LibraryID, user.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&library, "library", "", "library name")
	cmd.Flags().StringVar(&tz, "timezone", "", "IANA timezone, defaults to LIBRARY_DEFAULT_TZ")
	cmd.Flags().StringVar(&name, "name", "", "owner name")
	cmd.Flags().StringVar(&email, "email", "", "owner email")
	cmd.Flags().StringVar(&password, "password", "", "owner password")
	for _, f := range []string{"library", "name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func sweepCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sweep-subscriptions",
		Short: "Activate due pending subscriptions and expire finished ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return scheduler.RunSweep(ctx, db)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up after this long")
	return cmd
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo libraries from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return seeds.SeedLibrariesFromJSON(cmd.Context(), db, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "internals/seeds/data_libraries.json", "seed file")
	return cmd
}
