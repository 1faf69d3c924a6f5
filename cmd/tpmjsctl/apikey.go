package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tpmjs/tpmjs/pkg/apikey"
	gormstore "github.com/tpmjs/tpmjs/pkg/server/store/gorm"
)

// apikeyCmd represents the apikey command
var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys",
	Long:  `Manage API keys for registry users.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'apikey' requires a subcommand (create, list, revoke)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create an API key for a user",
	Long: `Create an API key for a user.

The raw key is printed once and never stored; only its digest is kept.

Example:
  tpmjsctl apikey create dev@example.com --name ci`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")

		database := mustConnect()
		users := gormstore.NewUsersStore(database)
		keys := gormstore.NewAPIKeysStore(database)

		user, err := users.FindUserByEmail(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unknown user %s: %v\n", args[0], err)
			os.Exit(1)
		}

		raw, prefix, digest, err := apikey.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			os.Exit(1)
		}

		stored, err := keys.CreateAPIKey(user.UserID, name, prefix, digest)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store key: %v\n", err)
			os.Exit(1)
		}

		printJSON(map[string]string{
			"key_id": stored.KeyID,
			"name":   stored.Name,
			"key":    raw,
		})
	},
}

var apikeyListCmd = &cobra.Command{
	Use:   "list <email>",
	Short: "List a user's API keys",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()
		users := gormstore.NewUsersStore(database)
		keys := gormstore.NewAPIKeysStore(database)

		user, err := users.FindUserByEmail(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unknown user %s: %v\n", args[0], err)
			os.Exit(1)
		}

		list, err := keys.ListAPIKeys(user.UserID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list keys: %v\n", err)
			os.Exit(1)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY ID\tNAME\tPREFIX\tCREATED\tREVOKED")
		for _, k := range list {
			revoked := ""
			if k.RevokedAt != nil {
				revoked = k.RevokedAt.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				k.KeyID, k.Name, k.Prefix, k.CreatedAt.Format("2006-01-02"), revoked)
		}
		_ = w.Flush()
	},
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <email> <key-id>",
	Short: "Revoke a user's API key",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()
		users := gormstore.NewUsersStore(database)
		keys := gormstore.NewAPIKeysStore(database)

		user, err := users.FindUserByEmail(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unknown user %s: %v\n", args[0], err)
			os.Exit(1)
		}

		if err := keys.RevokeAPIKey(args[1], user.UserID); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to revoke key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Key revoked")
	},
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd)
	apikeyCmd.AddCommand(apikeyListCmd)
	apikeyCmd.AddCommand(apikeyRevokeCmd)

	apikeyCreateCmd.Flags().StringP("name", "n", "default", "key name")
}
