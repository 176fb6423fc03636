// Musiclet — удалённый воркер музыкального сервиса.
//
// Worker:
//   - Получает tasks с сервера задач через long-poll
//   - Загружает аудио и обложку, выкладывает их в object store
//   - Сохраняет метаданные в PostgreSQL и ищет по ним
//   - Отправляет результат обратно на сервер
//
// Использование:
//
//	musiclet [--config PATH] [--json] [command]
//
// Без команды выполняется run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/musiclet/internal/cli"
	"github.com/shaiso/musiclet/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var configPath string
	var jsonOutput bool

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := telemetry.SetupLogger()

	pathFn := func() string { return configPath }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	loggerFn := func() *slog.Logger { return logger }

	runCmd := cli.NewRunCmd(pathFn, loggerFn)

	rootCmd := &cobra.Command{
		Use:           "musiclet",
		Short:         "Musiclet — remote media worker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", cli.DefaultConfigPath, "Path to the TOML config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		runCmd,
		cli.NewMigrateCmd(pathFn, outputFn),
		cli.NewConfigCmd(pathFn, outputFn),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
