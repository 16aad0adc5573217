package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tyrian-games/luthadel/internal/command"
	"github.com/tyrian-games/luthadel/internal/data"
	"github.com/tyrian-games/luthadel/internal/discord"
	"github.com/tyrian-games/luthadel/internal/engine"
	"github.com/tyrian-games/luthadel/internal/roles"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and moderate games",
	Long: `Connects the bot to Discord and keeps it running until interrupted.
The bot token comes from --token, the discord_token config key, or the
LUTHADEL_DISCORD_TOKEN environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			token = viper.GetString("discord_token")
		}
		if token == "" {
			return fmt.Errorf("no Discord bot token: run 'luthadel bot discord' or set LUTHADEL_DISCORD_TOKEN")
		}

		log, err := buildLogger(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		games, err := buildRegistry(cmd, log)
		if err != nil {
			return err
		}

		bot, err := discord.New(discord.Config{
			Token:    token,
			Games:    games,
			Commands: command.NewDispatcher(),
			Log:      log,
		})
		if err != nil {
			return err
		}
		if err := bot.Start(); err != nil {
			return err
		}

		fmt.Println("Luthadel is running. Press Ctrl+C to exit.")
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		return bot.Stop()
	},
}

// buildLogger makes the process logger, honoring --debug.
func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// buildRegistry assembles the game engine: role table, identity pool,
// and the per-guild registry.
func buildRegistry(cmd *cobra.Command, log *zap.Logger) (*engine.Registry, error) {
	roleReg, err := roles.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	var dataDirs []string
	if dataDir, _ := cmd.Flags().GetString("data_dir"); dataDir != "" {
		dataDirs = append(dataDirs, dataDir)
	}
	identities, err := data.NewLoader(dataDirs).LoadIdentities()
	if err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}

	return engine.NewRegistry(roleReg, identities, log), nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("token", "t", "", "Discord bot API token")
	serveCmd.Flags().String("data_dir", "", "Directory with identity data files (built-in data is used when empty)")
	serveCmd.Flags().Bool("debug", false, "Log at debug level with a human-readable format")
}
