package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/musiclet/internal/config"
)

// NewConfigCmd создаёт группу команд для работы с файлом конфигурации.
func NewConfigCmd(pathFn func() string, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(
		newConfigInitCmd(pathFn, outputFn),
		newConfigShowCmd(pathFn, outputFn),
	)
	return cmd
}

func newConfigInitCmd(pathFn func() string, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write an example configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pathFn()
			if path == "" {
				path = DefaultConfigPath
			}
			if err := config.WriteExample(path); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Config written to %s", path))
			return nil
		},
	}
}

func newConfigShowCmd(pathFn func() string, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(pathFn())
			if err != nil {
				return err
			}
			masked := cfg.Redacted()

			rows := [][2]string{
				{"server_url", masked.ServerURL},
				{"token", masked.Token},
				{"pgsql", masked.Pgsql},
				{"worker.poll_timeout", masked.Worker.PollTimeout.String()},
				{"worker.idle_backoff", masked.Worker.IdleBackoff.String()},
				{"worker.error_backoff", masked.Worker.ErrorBackoff.String()},
				{"worker.metrics_addr", masked.Worker.MetricsAddr},
				{"resolver.binary", masked.Resolver.Binary},
				{"resolver.download_dir", masked.Resolver.DownloadDir},
				{"storage.type", masked.Storage.Type},
				{"outbox.enabled", strconv.FormatBool(masked.Outbox.Enabled)},
				{"events.rabbitmq_url", masked.Events.RabbitMQURL},
			}
			outputFn().Print(rows, masked)
			return nil
		},
	}
}
