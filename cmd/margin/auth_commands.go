package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCommands(ctx *commandContext) []*cobra.Command {
	var password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the daemon API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			secret := strings.TrimSpace(password)
			if secret == "" {
				secret, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}
			if err := client.Login(cmd.Context(), secret); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
			return nil
		},
	}
	loginCmd.Flags().StringVar(&password, "password", "", "Dashboard password (prompted when omitted)")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if !client.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}

	return []*cobra.Command{loginCmd, logoutCmd}
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	secret := strings.TrimSpace(line)
	if secret == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return secret, nil
}
