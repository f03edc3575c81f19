package main

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

var manCmd = &cobra.Command{
	Use:                   "man",
	Short:                 "Generates manpages",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Hidden:                true,
	Args:                  cobra.NoArgs,
	PersistentPreRunE:     func(*cobra.Command, []string) error { return nil },
	RunE: func(*cobra.Command, []string) error {
		manPage, err := mcobra.NewManPage(1, rootCmd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		manPage = manPage.WithSection("Environment", "PARLEY_CONFIG_HOME, PARLEY_LOG_FILE and PARLEY_DEBUG control parley itself.\n"+
			"AWS_REGION and AWS_PROFILE are used when the config file does not set region or profile.")
		fmt.Println(manPage.Build(roff.NewDocument()))
		return nil
	},
}
