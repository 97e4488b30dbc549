package provision

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
)

// requiredTools are the external commands a provisioning run invokes.
var requiredTools = []string{
	"lsblk",
	"partprobe",
	"parted",
	"fdisk",
	"dd",
	"mkfs.ext4",
	"e2fsck",
}

// Preflight rejects a run that could not possibly finish before any
// destructive command is issued: it must run as root, every external
// tool must be installed, and the target must be a whole disk.
func Preflight(device string) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("must run as root (use sudo): provisioning rewrites partition tables")
	}

	var missing []string
	for _, tool := range requiredTools {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required commands: %s", strings.Join(missing, ", "))
	}

	if disk.LooksLikePartition(device) {
		return fmt.Errorf("%s looks like a partition; pass the whole disk (e.g. /dev/sdb, /dev/mmcblk0)", device)
	}

	if _, err := os.Stat(device); err != nil {
		return fmt.Errorf("device %s is not accessible: %w", device, err)
	}

	return nil
}
