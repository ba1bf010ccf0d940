package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/upb/learnhub/auth"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/services"
	"golang.org/x/crypto/bcrypt"
)

// operatorStore is the slice of the credential store the CLI drives.
type operatorStore interface {
	Create(ctx context.Context, in services.CreateOperatorInput) (*models.Operator, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
	List(ctx context.Context) ([]*models.Operator, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// environment carries the side effects of the CLI so commands can be tested
// without a database.
type environment struct {
	out     io.Writer
	connect func(ctx context.Context) (operatorStore, func() error, error)
	migrate func(ctx context.Context) error
}

func (e *environment) withStore(ctx context.Context, fn func(store operatorStore) error) error {
	store, closeFn, err := e.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(store)
}

func newRootCmd(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:   "manage-user",
		Short: "Manage learnhub operator accounts",
		Long: `manage-user creates, lists and deletes operator accounts directly in the
database. It reads the same environment as the server (DATABASE_URL or DB_*).`,
		SilenceUsage: true,
	}
	root.SetOut(env.out)
	root.SetErr(env.out)

	root.AddCommand(
		newCreateCmd(env),
		newDeleteCmd(env),
		newListCmd(env),
		newHashPasswordCmd(env),
		newMigrateCmd(env),
	)
	return root
}

func newCreateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "create <username> <password> [role]",
		Short: "Create an operator (role defaults to ADMINISTRATOR)",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.RoleAdministrator
			if len(args) == 3 {
				role = models.Role(strings.ToUpper(strings.TrimSpace(args[2])))
				if !role.Valid() {
					return fmt.Errorf("invalid role %q: must be OPERATOR or ADMINISTRATOR", args[2])
				}
			}

			return env.withStore(cmd.Context(), func(store operatorStore) error {
				op, err := store.Create(cmd.Context(), services.CreateOperatorInput{
					Username: args[0],
					Password: args[1],
					Role:     role,
				})
				if err != nil {
					return fmt.Errorf("failed to create operator: %w", err)
				}
				fmt.Fprintf(env.out, "created %s (%s) with id %s\n", op.Username, op.Role, op.ID)
				return nil
			})
		},
	}
}

func newDeleteCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an operator by username",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd.Context(), func(store operatorStore) error {
				op, err := store.GetByUsername(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("failed to find operator %q: %w", args[0], err)
				}
				if err := store.Delete(cmd.Context(), op.ID); err != nil {
					return fmt.Errorf("failed to delete operator: %w", err)
				}
				fmt.Fprintf(env.out, "deleted %s\n", op.Username)
				return nil
			})
		},
	}
}

func newListCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.withStore(cmd.Context(), func(store operatorStore) error {
				ops, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list operators: %w", err)
				}
				if len(ops) == 0 {
					fmt.Fprintln(env.out, "No operators found.")
					return nil
				}

				w := tabwriter.NewWriter(env.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tCREATED")
				for _, op := range ops {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						op.ID, op.Username, op.Role, op.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return w.Flush()
			})
		},
	}
}

func newHashPasswordCmd(env *environment) *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
				return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
			}
			hash, err := auth.NewPasswordHasher(cost).Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(env.out, hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	return cmd
}

func newMigrateCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(env.out, "migrations applied")
			return nil
		},
	}
}
