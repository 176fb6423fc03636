package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/musiclet/internal/config"
	"github.com/shaiso/musiclet/internal/repo"
)

// NewMigrateCmd создаёт команду применения миграций схемы.
func NewMigrateCmd(pathFn func() string, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(pathFn())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := repo.NewPool(ctx, cfg.Pgsql, cfg.Worker.DBMaxConns)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()

			applied, err := repo.Migrate(ctx, pool)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print([][2]string{{"applied", fmt.Sprint(applied)}}, map[string]int{"applied": applied})
			out.Success("Migrations up to date")
			return nil
		},
	}
}
