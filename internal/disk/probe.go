package disk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

// Prober reads device state through external tools. Every call issues
// fresh commands; nothing is cached between calls, so a Prober always
// reflects what the kernel currently believes.
type Prober struct {
	runner shell.Runner
}

func NewProber(runner shell.Runner) *Prober {
	return &Prober{runner: runner}
}

// Refresh asks the kernel to re-read the device's partition table.
func (p *Prober) Refresh(device string) error {
	_, err := p.strict("partprobe", device)
	return err
}

// CapacityBytes returns the device capacity in bytes.
func (p *Prober) CapacityBytes(device string) (uint64, error) {
	result, err := p.strict("lsblk", "-b", "-d", "-o", "SIZE", "-n", device)
	if err != nil {
		return 0, err
	}

	size, err := strconv.ParseUint(strings.TrimSpace(result.Stdout), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing capacity of %s from %q: %w", device, strings.TrimSpace(result.Stdout), err)
	}
	return size, nil
}

// IsEmpty reports whether the device carries no partitions. The state
// is re-probed first so a just-erased or just-flashed device is not
// judged on stale kernel data. lsblk prints a header plus one line per
// block device, so an empty disk lists at most two lines.
func (p *Prober) IsEmpty(device string) (bool, error) {
	if err := p.Refresh(device); err != nil {
		return false, err
	}

	result, err := p.strict("lsblk", device)
	if err != nil {
		return false, err
	}

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	return len(lines) <= 2, nil
}

// Listing returns the human-readable lsblk listing of the device.
func (p *Prober) Listing(device string) (string, error) {
	result, err := p.strict("lsblk", device)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// TableTypeOf detects the partition table scheme on the device.
func (p *Prober) TableTypeOf(device string) (TableType, error) {
	result, err := p.strict("fdisk", "-l", device)
	if err != nil {
		return TableUnknown, err
	}
	return DetectTableType(result.Stdout), nil
}

// ReadTable captures the device's partition table in sector units.
func (p *Prober) ReadTable(device string) (*Table, error) {
	result, err := p.strict("parted", device, "-ms", "unit", "s", "print")
	if err != nil {
		return nil, err
	}
	return ParseTable(result.Stdout, device)
}

func (p *Prober) strict(name string, args ...string) (shell.Result, error) {
	result, err := p.runner.Run(name, args...)
	if err != nil {
		return result, err
	}
	if result.ExitCode != 0 {
		return result, shell.NewExitError(shell.CommandLine(name, args...), result)
	}
	return result, nil
}
