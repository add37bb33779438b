package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is Gato's reported CLI version.
const Version = "0.1.0"

var versionFlag bool

var rootCmd = &cobra.Command{
	Use:   "gato",
	Short: "Gato is a content-addressed version control system",
	Long:  `Gato tracks a working directory's history as a graph of immutable, content-addressed objects shared across every repository on the machine.`,
	Run: func(cmd *cobra.Command, args []string) {
		if versionFlag {
			fmt.Printf("gato version %s\n", Version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the root command, exiting non-zero on any error — the
// contract spec.md §6 requires of every CLI command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&versionFlag, "version", false, "print the gato version")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(newBranchCmd)
	rootCmd.AddCommand(changeBranchCmd)
	rootCmd.AddCommand(deleteBranchCmd)
	rootCmd.AddCommand(softResetCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(listReposCmd)
	rootCmd.AddCommand(deleteRepoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(verifyCommitCmd)
	rootCmd.AddCommand(listCommitsCmd)
	rootCmd.AddCommand(mountCmd)
}
