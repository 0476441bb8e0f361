package ee

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/eeprom"
	"github.com/spf13/cobra"
)

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Recovers the pages after power up or an interrupted compaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := eeStore.Init(); err != nil {
				return err
			}
			fmt.Println("init successfully")
			return nil
		},
	}
	formatCmd = &cobra.Command{
		Use:   "format",
		Short: "Erases both pages and activates an empty one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := eeStore.Format(); err != nil {
				return err
			}
			fmt.Println("format successfully")
			return nil
		},
	}
	readCmd = &cobra.Command{
		Use:   "read [address] [length]",
		Short: "Reads bytes starting at address (unwritten bytes read as 00)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := util.ParseAddress(args[0])
			if err != nil {
				return err
			}
			length := 1
			if len(args) == 2 {
				if length, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("length must be a number: %w", err)
				}
			}

			data, err := eeStore.Read(address, length)
			if len(data) > 0 {
				if raw, _ := cmd.Flags().GetBool("raw"); raw {
					fmt.Printf("%s\n", data)
				} else {
					fmt.Print(hex.Dump(data))
				}
			}
			return err
		},
	}
	writeCmd = &cobra.Command{
		Use:   "write [address] [value]",
		Short: "Writes bytes starting at address. The value is hex (e.g. 01ff) unless --string is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := util.ParseAddress(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if asString, _ := cmd.Flags().GetBool("string"); asString {
				data = []byte(args[1])
			} else if data, err = util.ParseHexBytes(args[1]); err != nil {
				return err
			}

			n, err := eeStore.Write(address, data)
			fmt.Printf("wrote %d of %d bytes\n", n, len(data))
			return err
		},
	}
	entriesCmd = &cobra.Command{
		Use:   "entries",
		Short: "Lists the current value of every record, ordered by address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := eeStore.Entries()
			if err != nil {
				return err
			}
			for _, rec := range entries {
				fmt.Println(rec)
			}
			fmt.Printf("%d records\n", len(entries))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Shows page states, slot usage and wear counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := eeStore.GetInfo()
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			printInfo(info)
			return nil
		},
	}
)

func init() {
	readCmd.Flags().Bool("raw", false, util.WrapString("Print the bytes as text instead of a hex dump"))
	writeCmd.Flags().Bool("string", false, util.WrapString("Write the value as text instead of parsing it as hex"))
	infoCmd.Flags().Bool("json", false, util.WrapString("Print the info as JSON"))
}

func printInfo(info eeprom.Info) {
	active := "none"
	if info.ActivePage >= 0 {
		active = strconv.Itoa(info.ActivePage)
	}

	fmt.Printf("%-16s: %s\n", "Active Page", active)
	for i, page := range info.Pages {
		fmt.Printf("%-16s: 0x%08X %-12s %4d slots used, %d erases\n",
			fmt.Sprintf("Page %d", i), page.Address, page.Status, page.UsedSlots, page.Erases)
	}
	fmt.Printf("%-16s: %d / %d (%d free)\n", "Slots", info.UsedSlots, info.Capacity, info.FreeSlots)
	fmt.Printf("%-16s: %d\n", "Live Records", info.LiveRecords)
	fmt.Printf("%-16s: %d\n", "Compactions", info.Compactions)
	fmt.Printf("%-16s: %d appended, %d elided\n", "Writes", info.Appended, info.Elided)
	fmt.Printf("%-16s: %.2f (min %.0f, max %.0f erases)\n", "Wear Quality",
		info.Wear.DistributionQuality, info.Wear.Min, info.Wear.Max)
}
