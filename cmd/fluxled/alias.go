package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/fluxled/internal/config"
	"github.com/muurk/fluxled/internal/device"
	"github.com/muurk/fluxled/internal/ui"
)

// Alias flags
var (
	aliasModel      string
	aliasGeneration string
	aliasNote       string
	aliasIdentify   bool
)

func init() {
	rootCmd.AddCommand(aliasCmd)
	aliasCmd.AddCommand(aliasListCmd)
	aliasCmd.AddCommand(aliasAddCmd)
	aliasCmd.AddCommand(aliasRemoveCmd)

	aliasAddCmd.Flags().StringVar(&aliasModel, "model", "", "Model id, e.g. 0x44 (skips identification)")
	aliasAddCmd.Flags().StringVar(&aliasGeneration, "generation", "", "Protocol generation: legacy or v2")
	aliasAddCmd.Flags().StringVar(&aliasNote, "note", "", "Free-form note")
	aliasAddCmd.Flags().BoolVar(&aliasIdentify, "identify", false, "Query the device and record its model and generation")
}

// aliasCmd manages device aliases in the config file
var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage device aliases",
	Long: `Manage device aliases stored in the config file. An alias can be used
anywhere --device takes an address.`,
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List device aliases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		aliases := cfg.Aliases()
		if outputFormat == formatJSON {
			return printJSON(out, cfg.Devices)
		}
		if len(aliases) == 0 {
			fmt.Fprintln(out, "No aliases configured. Add one with 'fluxled alias add <name> <address>'.")
			return nil
		}
		for _, a := range aliases {
			d := cfg.Devices[a]
			extra := []string{}
			if d.Model != "" {
				extra = append(extra, "model "+d.Model)
			}
			if d.Generation != "" {
				extra = append(extra, d.Generation)
			}
			if d.Note != "" {
				extra = append(extra, d.Note)
			}
			fmt.Fprintf(out, "%-16s %-22s %s\n", a, d.Address, strings.Join(extra, ", "))
		}
		return nil
	},
}

var aliasAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Add or replace a device alias",
	Example: `  fluxled alias add desk 192.168.1.20
  fluxled alias add strip 192.168.1.31 --identify
  fluxled alias add bulb 192.168.1.40 --model 0x35 --note "hallway"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, addr := args[0], args[1]
		d := &config.Device{Address: addr, Model: aliasModel, Generation: aliasGeneration, Note: aliasNote}

		if aliasIdentify {
			c, err := device.Connect(cmd.Context(), withPort(addr), newClientOptions()...)
			if err != nil {
				return fmt.Errorf("failed to identify %s: %w", addr, err)
			}
			desc, _ := c.Descriptor()
			_ = c.Close()
			d.Model = fmt.Sprintf("0x%02X", desc.ModelNum)
			d.Generation = desc.Generation.String()
		}

		cfg.SetDevice(name, d)
		if err := saveConfig(); err != nil {
			cfg.RemoveDevice(name)
			return err
		}

		details := []ui.Detail{{Key: "Alias", Value: name}, {Key: "Address", Value: addr}}
		if d.Model != "" {
			details = append(details, ui.Detail{Key: "Model", Value: d.Model})
		}
		if d.Generation != "" {
			details = append(details, ui.Detail{Key: "Generation", Value: d.Generation})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.NewSuccessResult("Alias saved", details...).Render())
		return nil
	},
}

var aliasRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a device alias",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.RemoveDevice(args[0]) {
			return fmt.Errorf("no alias %q", args[0])
		}
		if err := saveConfig(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed alias %q\n", args[0])
		return nil
	},
}

// saveConfig writes cfg back to where it was loaded from
func saveConfig() error {
	if configPath != "" {
		return cfg.Save(configPath)
	}
	return cfg.SaveDefault()
}
