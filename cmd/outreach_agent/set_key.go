package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/spf13/cobra"
)

var setKeyCmd = &cobra.Command{
	Use:   "set-key [api-key]",
	Short: "Store the Gemini API key in the OS keyring",
	Long:  "Store the Gemini API key in the OS keyring so it need not live in the environment. Reads the key from stdin when no argument is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSetKey,
}

var setKeyDelete bool

func init() {
	setKeyCmd.Flags().BoolVar(&setKeyDelete, "delete", false, "Remove the stored key instead")
	rootCmd.AddCommand(setKeyCmd)
}

// keyringStore and keyringDelete are swapped out in tests
var (
	keyringStore  = config.StoreAPIKey
	keyringDelete = config.DeleteAPIKey
)

func runSetKey(cmd *cobra.Command, args []string) error {
	if setKeyDelete {
		if err := keyringDelete(); err != nil {
			return fmt.Errorf("failed to delete API key: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "API key removed from keyring")
		return err
	}

	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read API key from stdin: %w", err)
		}
		key = line
	}

	if err := keyringStore(strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "API key stored in keyring service %q\n", config.KeyringService)
	return err
}
