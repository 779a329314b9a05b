package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kwan3217/globetrotter/internal/capture"
)

var (
	flagPort string
	flagBaud int
	flagList bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "record raw receiver output from a serial port",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagList {
			ports, err := capture.ListPorts()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Println(p)
			}
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cc := capture.Config{Port: cfg.Capture.Port, Baud: cfg.Capture.Baud, Dir: cfg.Capture.Dir}
		if flagPort != "" {
			cc.Port = flagPort
		}
		if flagBaud != 0 {
			cc.Baud = flagBaud
		}
		if cc.Port == "" {
			return fmt.Errorf("no serial port configured; use --port or the config file")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		path, err := capture.Run(ctx, cc)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVar(&flagPort, "port", "", "serial port device")
	recordCmd.Flags().IntVar(&flagBaud, "baud", 0, "baud rate")
	recordCmd.Flags().BoolVar(&flagList, "list", false, "list serial ports and exit")
	rootCmd.AddCommand(recordCmd)
}
