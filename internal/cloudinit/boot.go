package cloudinit

import (
	"fmt"
	"path/filepath"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/console"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

// MountPoint is where the boot partition is mounted while files are
// copied onto it.
const MountPoint = "/mnt/nodeboot"

// BootInstaller copies a host's rendered configuration onto the boot
// partition of a flashed device. All filesystem manipulation goes
// through the runner so the flow stays scriptable in tests.
type BootInstaller struct {
	Runner  shell.Runner
	Console *console.Console
}

// Install mounts the partition, copies the host's files and unmounts
// again. The partition is left unmounted even when a copy fails.
func (b *BootInstaller) Install(host HostConfig, partition string) error {
	if _, err := b.strict("partprobe", partition); err != nil {
		return err
	}
	if _, err := b.strict("mkdir", "-p", MountPoint); err != nil {
		return err
	}
	if _, err := b.strict("mount", partition, MountPoint); err != nil {
		return err
	}

	if err := b.copyFiles(host); err != nil {
		// Do not leave the partition mounted behind a failed copy.
		b.Runner.Run("umount", MountPoint)
		return err
	}

	b.Console.Successf("Unmounting partition %s", partition)
	if _, err := b.strict("umount", MountPoint); err != nil {
		return err
	}

	b.Console.Successf("Finished copying cloud-init configuration.")
	return nil
}

func (b *BootInstaller) copyFiles(host HostConfig) error {
	for _, file := range host.Files() {
		b.Console.Successf("Copying %s to the boot partition", filepath.Base(file))
		if _, err := b.strict("cp", file, MountPoint); err != nil {
			return err
		}
	}
	return nil
}

func (b *BootInstaller) strict(name string, args ...string) (shell.Result, error) {
	result, err := b.Runner.Run(name, args...)
	if err != nil {
		return result, err
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("installing boot files: %w",
			shell.NewExitError(shell.CommandLine(name, args...), result))
	}
	return result, nil
}
