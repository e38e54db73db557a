package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/23skdu/longbow-clvecadd/internal/device"
)

func newDevicesCmd(opts *setupOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List compute platforms and the devices selectable with --device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			class, err := device.ParseDeviceClass(opts.class)
			if err != nil {
				return err
			}
			drv, err := openDriver(opts.driver)
			if err != nil {
				return err
			}
			inv, err := device.Inventory(drv)
			if err != nil {
				return err
			}
			devices, err := device.ListDevices(drv, class)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(inv) == 0 {
				fmt.Fprintln(out, "no platforms found")
				return nil
			}
			writePlatforms(out, inv)
			fmt.Fprintln(out)
			if len(devices) == 0 {
				fmt.Fprintf(out, "no %s devices found\n", class)
				return nil
			}
			writeDevices(out, devices)
			return nil
		},
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func writePlatforms(w io.Writer, inv []device.PlatformInventory) {
	var data [][]string
	for _, p := range inv {
		data = append(data, []string{
			p.Info.Name,
			p.Info.Vendor,
			p.Info.Version,
			p.Info.Profile,
			strconv.Itoa(len(p.Devices)),
		})
	}
	table := newTable(w, []string{"PLATFORM", "VENDOR", "VERSION", "PROFILE", "DEVICES"})
	table.AppendBulk(data)
	table.Render()
}

func writeDevices(w io.Writer, devices []device.Device) {
	var data [][]string
	for i, d := range devices {
		data = append(data, []string{
			strconv.Itoa(i),
			d.Info.Name,
			d.Info.Class.String(),
			strconv.FormatUint(uint64(d.Info.ComputeUnits), 10),
			strconv.Itoa(d.Info.MaxWorkGroupSize),
			d.Platform.Name,
		})
	}
	table := newTable(w, []string{"INDEX", "DEVICE", "CLASS", "UNITS", "MAX WORK-GROUP", "PLATFORM"})
	table.AppendBulk(data)
	table.Render()
}
