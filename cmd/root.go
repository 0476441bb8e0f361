package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/fKV/cmd/ee"
	"github.com/ValentinKolb/fKV/cmd/image"
	"github.com/ValentinKolb/fKV/cmd/serve"
	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "fkv",
		Short: "flash-emulated EEPROM key-value store",
		Long: fmt.Sprintf(`fKV (v%s)

A power-loss safe EEPROM emulation on two flash pages, usable as a
library, as a local flash image tool or served over RPC.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of fKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fKV v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(ee.EEPROMCommands)
	RootCmd.AddCommand(image.ImageCommands)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
