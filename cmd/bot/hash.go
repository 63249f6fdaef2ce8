package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"serotonyl.ru/season-bot/internal/features/access"
)

// newHashCommand печатает Argon2id-хеш пароля для ACCESS_PASSWORD_HASH.
func newHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print an Argon2id hash for ACCESS_PASSWORD_HASH",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := access.HashPassword(strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Password hash (put it into .env as ACCESS_PASSWORD_HASH):")
			fmt.Fprintln(out, hash)
			return nil
		},
	}
}
