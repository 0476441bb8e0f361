package image

import (
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/ValentinKolb/fKV/lib/flash"
	"github.com/spf13/cobra"
)

var (
	// ImageCommands represents the flash image command group
	ImageCommands = &cobra.Command{
		Use:   "image",
		Short: "Create and inspect flash image files",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [path]",
		Short: "Creates a fully erased flash image with the configured layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := util.GetEEPROMOptions()
			if err != nil {
				return err
			}
			if err := flash.CreateImage(args[0], opts.Geometry()); err != nil {
				return err
			}
			fmt.Printf("created %s (%s, %d records per page)\n", args[0], opts.Geometry(), opts.Capacity())
			return nil
		},
	}
	inspectCmd = &cobra.Command{
		Use:   "inspect [path]",
		Short: "Prints the page markers and the records of a flash image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := util.GetEEPROMOptions()
			if err != nil {
				return err
			}
			f, err := flash.OpenFileFlash(args[0], opts.Geometry())
			if err != nil {
				return err
			}
			defer f.Close()

			all, _ := cmd.Flags().GetBool("all")
			Inspect(os.Stdout, f, opts, all)
			return nil
		},
	}
)

func init() {
	util.SetupLayoutFlags(ImageCommands)
	inspectCmd.Flags().Bool("all", false, util.WrapString("Also print the erased slots above the last record"))

	ImageCommands.AddCommand(createCmd)
	ImageCommands.AddCommand(inspectCmd)
}

// Inspect writes the marker and the slots of both pages to w. Unless all is
// set only the slots up to the last programmed one are listed.
func Inspect(w io.Writer, f flash.Flash, opts *eeprom.Options, all bool) {
	geo := opts.Geometry()
	capacity := opts.Capacity()

	for p := 0; p < geo.PageCount; p++ {
		base := geo.PageAddress(p)
		marker := f.ReadWord(base)
		fmt.Fprintf(w, "page %d @ 0x%08X  marker 0x%08X  %s\n", p, base, marker, eeprom.StatusFromMarker(marker))

		last := capacity
		if !all {
			for last > 0 && f.ReadWord(base+uint32(4*last)) == eeprom.SentinelWord {
				last--
			}
		}

		for slot := 1; slot <= last; slot++ {
			word := f.ReadWord(base + uint32(4*slot))
			if rec, ok := eeprom.DecodeRecord(word); ok {
				fmt.Fprintf(w, "  %4d  0x%08X  %s\n", slot, word, rec)
			} else {
				fmt.Fprintf(w, "  %4d  0x%08X  -\n", slot, word)
			}
		}
		fmt.Fprintf(w, "  %d of %d slots used\n", lastProgrammed(f, base, capacity), capacity)
	}
}

func lastProgrammed(f flash.Flash, base uint32, capacity int) int {
	for slot := capacity; slot >= 1; slot-- {
		if f.ReadWord(base+uint32(4*slot)) != eeprom.SentinelWord {
			return slot
		}
	}
	return 0
}
