package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/config"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/version"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:     "nodeboot",
	Short:   "Storage provisioning for headless Raspberry Pi k8s nodes",
	Version: version.Version,
	Long: `nodeboot prepares storage media for headless Raspberry Pi 5
Kubernetes nodes: it flashes a base OS image onto a disk, grows the
system partition to a requested size, carves a data partition from the
remaining space, and generates per-host cloud-init configuration.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/nodeboot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "show the output of every executed command")

	rootCmd.AddCommand(flashCmd)
	rootCmd.AddCommand(cloudInitCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig is the shared config loader for all commands.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
