package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newHashTokenCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-token [token]",
		Short: "Print the bcrypt hash of an API token for auth_token_hash",
		Long:  "hash-token hashes its argument, or the first line of stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading token: %w", err)
				}
				token = strings.TrimRight(line, "\r\n")
			}
			if token == "" {
				return fmt.Errorf("token must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}
