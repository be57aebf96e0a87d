// File: cmd/landisco/main.go
// Author: momentics <momentics@gmail.com>
//
// landisco command: runs one discovery role until interrupted.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/momentics/landisco/discovery"
)

var rootCmd = &cobra.Command{
	Use:   "landisco",
	Short: "Brokerless LAN discovery node",
	Long: `landisco runs one discovery role: a server that registers peers it
hears about, or a service that announces its own presence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serverCmd = &cobra.Command{
	Use:   "server <subnet> <port>",
	Short: "Listen for presence broadcasts and accept registrations",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := parseConfig(args)
		if err != nil {
			return err
		}
		return runRole("server", discovery.NewRegistry(cfg), cfg)
	},
}

var serviceCmd = &cobra.Command{
	Use:   "service <subnet> <port>",
	Short: "Broadcast this node's presence once per second",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := parseConfig(args)
		if err != nil {
			return err
		}
		return runRole("service", discovery.NewAdvertiser(cfg), cfg)
	},
}

func parseConfig(args []string) (discovery.Config, error) {
	port, err := strconv.Atoi(args[1])
	if err != nil || port <= 0 || port > 65535 {
		return discovery.Config{}, fmt.Errorf("invalid port %q", args[1])
	}
	return discovery.Config{Subnet: args[0], Port: port}, nil
}

// runRole hosts the role under a supervisor until SIGINT/SIGTERM, then
// lets the role's scoped shutdown unwind before exiting.
func runRole(name string, role suture.Service, cfg discovery.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.Info.Printfln("landisco %s: subnet %s, port %d", name, cfg.Subnet, cfg.Port)

	sup := suture.NewSimple("landisco-" + name)
	sup.Add(role)
	err := sup.Serve(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		pterm.Info.Printfln("landisco %s: stopped", name)
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(serviceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Printfln("%v", err)
		os.Exit(1)
	}
}
