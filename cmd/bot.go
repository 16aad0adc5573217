package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var botToken string

// botCmd represents the bot command
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Manage global bot configurations",
}

// discordBotCmd represents the discord subcommand of bot
var discordBotCmd = &cobra.Command{
	Use:   "discord",
	Short: "Register the Discord bot token",
	Run: func(cmd *cobra.Command, args []string) {
		if botToken == "" {
			fmt.Println("---")
			fmt.Println("Create your Discord Bot & Get Token")
			fmt.Println("Open the Discord Developer Portal (discord.com/developers) and create a New Application.")
			fmt.Println("Under Bot, click Reset Token and copy the token. Store it securely, as it is required for all API interactions.")
			fmt.Println("Still under Bot, enable the Message Content intent so the bot can read commands.")
			fmt.Println("Invite the bot to your server with the bot scope and permissions to manage webhooks, create private threads, and send messages in threads.")
			fmt.Println("---")
			fmt.Print("token: ")

			scanner := bufio.NewScanner(os.Stdin)
			if scanner.Scan() {
				botToken = strings.TrimSpace(scanner.Text())
			}
		}

		if botToken != "" {
			viper.Set("discord_token", botToken)
			err := viper.WriteConfig()
			if err != nil {
				// WriteConfig fails when no config file exists yet.
				err = viper.SafeWriteConfig()
				if err != nil {
					home, _ := os.UserHomeDir()
					err = viper.WriteConfigAs(home + "/.luthadel.yaml")
				}
			}
			if err == nil {
				fmt.Println("Discord bot token saved successfully.")
			} else {
				fmt.Printf("Error saving configuration: %v\n", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
	botCmd.AddCommand(discordBotCmd)

	discordBotCmd.Flags().StringVarP(&botToken, "token", "t", "", "Discord bot API token")
}
