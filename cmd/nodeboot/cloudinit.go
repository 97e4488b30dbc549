package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/cloudinit"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/console"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

var (
	cloudInitHosts  int
	cloudInitOffset int
	cloudInitEth    bool
	cloudInitWifi   bool
	cloudInitForce  bool
)

var cloudInitCmd = &cobra.Command{
	Use:   "cloud-init <device>",
	Short: "Generate per-host cloud-init configuration",
	Long: `Cloud-init renders user-data and network-config files for each
host from the configured templates, then offers to copy them onto the
boot partition of a flashed device.

Host addresses are assigned from the configured networks; --offset
shifts the numbering when extending an existing fleet.`,
	Args: cobra.ExactArgs(1),
	Run:  runCloudInit,
}

func init() {
	cloudInitCmd.Flags().IntVar(&cloudInitHosts, "hosts", 4, "number of hosts to generate config for")
	cloudInitCmd.Flags().IntVar(&cloudInitOffset, "offset", 0, "host numbering offset")
	cloudInitCmd.Flags().BoolVar(&cloudInitEth, "eth", true, "configure the ethernet interface")
	cloudInitCmd.Flags().BoolVar(&cloudInitWifi, "wifi", false, "configure the wifi interface")
	cloudInitCmd.Flags().BoolVarP(&cloudInitForce, "force", "f", false, "regenerate config that already exists")
}

func runCloudInit(cmd *cobra.Command, args []string) {
	device := args[0]
	cfg := loadConfig()

	cons := console.New(debug)
	prompter := console.NewPrompter()
	runner := &console.EchoRunner{Runner: shell.NewExecRunner(), Console: cons}

	generator := &cloudinit.Generator{Config: cfg.CloudInit, Console: cons}
	hosts, err := generator.Generate(cloudinit.Options{
		Hosts:     cloudInitHosts,
		Offset:    cloudInitOffset,
		SetupEth:  cloudInitEth,
		SetupWifi: cloudInitWifi,
		Force:     cloudInitForce,
	})
	if err != nil {
		fatal(cons, err)
	}
	cons.Successf("Finished generating cloud-init configuration.")

	installer := &cloudinit.BootInstaller{Runner: runner, Console: cons}
	for _, host := range hosts {
		if err := offerBootInstall(cons, prompter, installer, runner, host, device); err != nil {
			fatal(cons, err)
		}
	}
}

// offerBootInstall walks one host's copy-to-boot dialog: confirm, wait
// for the right disk, pick the partition, install.
func offerBootInstall(cons *console.Console, prompter console.Prompter, installer *cloudinit.BootInstaller, runner shell.Runner, host cloudinit.HostConfig, device string) error {
	ok, err := prompter.Confirm(fmt.Sprintf(
		"Want to copy the configuration for %s on the boot partition?", host.Hostname))
	if err != nil || !ok {
		return err
	}

	for {
		inserted, err := prompter.Confirm("Is the correct disk inserted?")
		if err != nil {
			return err
		}
		if inserted {
			break
		}
	}

	listing, err := disk.NewProber(runner).Listing(device)
	if err != nil {
		return err
	}
	cons.Panel("Available Devices", listing)

	partition, err := prompter.AskString("Enter the partition to use",
		disk.PartitionDevice(device, disk.BootPartition))
	if err != nil {
		return err
	}

	return installer.Install(host, partition)
}
