package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = needsDatabase(&cobra.Command{
	Use:   "migrate",
	Short: "Create any missing tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := repo.ApplySchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Schema is up to date")
		return nil
	},
})

func init() {
	rootCmd.AddCommand(migrateCmd)
}
