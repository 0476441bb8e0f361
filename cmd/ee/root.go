package ee

import (
	"errors"
	"io"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/lstore"
	"github.com/ValentinKolb/fKV/rpc/client"
	"github.com/ValentinKolb/fKV/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	eeStore store.IStore

	// closer releases the image or the transport behind eeStore
	closer io.Closer

	// EEPROMCommands represents the EEPROM command group
	EEPROMCommands = &cobra.Command{
		Use:                "ee",
		Short:              "Perform operations on an emulated EEPROM",
		Long:               `Perform operations on an emulated EEPROM. By default the commands talk to a shard of an fKV server; with --image they open a local flash image directly.`,
		PersistentPreRunE:  setupEEClient,
		PersistentPostRunE: closeEEClient,
	}
)

func init() {
	util.SetupRPCClientFlags(EEPROMCommands)
	util.SetupLayoutFlags(EEPROMCommands)

	key := "image"
	EEPROMCommands.PersistentFlags().String(key, "", util.WrapString("Operate on this local flash image instead of a server (see 'fkv image create')"))

	key = "log-level"
	EEPROMCommands.PersistentFlags().String(key, "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	EEPROMCommands.AddCommand(initCmd)
	EEPROMCommands.AddCommand(formatCmd)
	EEPROMCommands.AddCommand(readCmd)
	EEPROMCommands.AddCommand(writeCmd)
	EEPROMCommands.AddCommand(entriesCmd)
	EEPROMCommands.AddCommand(infoCmd)
	EEPROMCommands.AddCommand(perfTestCmd)
}

// setupEEClient opens the local image or connects the RPC store client
func setupEEClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	if image := viper.GetString("image"); image != "" {
		return openImage(image, cmd != formatCmd)
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}
	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	eeStore, err = client.NewRPCStore(util.GetShardID(), *util.GetClientConfig(), t, s)
	if err != nil {
		return err
	}
	closer = t
	return nil
}

// openImage opens a flash image as local store. The store is recovered unless
// the command formats it anyway.
func openImage(path string, recoverPages bool) error {
	opts, err := util.GetEEPROMOptions()
	if err != nil {
		return err
	}

	f, err := flash.OpenFileFlash(path, opts.Geometry())
	if err != nil {
		return err
	}

	eeStore, err = lstore.NewLocalStore("cli", func() (*eeprom.EEPROM, error) {
		return eeprom.New(f, opts)
	})
	if err != nil {
		return errors.Join(err, f.Close())
	}
	closer = f

	if recoverPages {
		return eeStore.Init()
	}
	return nil
}

func closeEEClient(_ *cobra.Command, _ []string) error {
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}
