package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "avifgun <input> [output]",
	Short: "avifgun - batch convert images to AVIF",
	Long: "avifgun converts a single image, or every image in a folder, to AVIF with avifenc,\n" +
		"optionally scoring each result with dssim, and reports size and quality statistics.",
	Args:          cobra.RangeArgs(1, 2),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runConvert,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if isValidation(err) {
			fmt.Fprintln(os.Stderr, "Run 'avifgun --help' for usage.")
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/avifgun/config.toml)")
	registerConvertFlags(rootCmd)
}
