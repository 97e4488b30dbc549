package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/console"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/journal"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/provision"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

var (
	flashSystemSize int
	flashImagePath  string
	flashForce      bool
)

var flashCmd = &cobra.Command{
	Use:   "flash <device>",
	Short: "Flash a base image and partition the device",
	Long: `Flash writes the base OS image to the device, grows the system
partition to the requested size and creates an ext4 data partition in
the remaining space.

The device must be empty unless --force is given. Sizes and paths not
provided as flags are prompted for.`,
	Args: cobra.ExactArgs(1),
	Run:  runFlash,
}

func init() {
	flashCmd.Flags().IntVar(&flashSystemSize, "system-size", 0, "size of the system partition in GB")
	flashCmd.Flags().StringVar(&flashImagePath, "image-path", "", "path to the base .img image")
	flashCmd.Flags().BoolVarP(&flashForce, "force", "f", false, "erase the device if it is not empty")
}

func runFlash(cmd *cobra.Command, args []string) {
	device := args[0]
	cfg := loadConfig()

	cons := console.New(debug)
	prompter := console.NewPrompter()
	runner := &console.EchoRunner{Runner: shell.NewExecRunner(), Console: cons}

	if err := provision.Preflight(device); err != nil {
		fatal(cons, err)
	}

	p := provision.New(runner, cons, prompter)
	if j, err := journal.Open(cfg.Journal.Path); err != nil {
		cons.Warnf("Journal unavailable: %v", err)
	} else {
		defer j.Close()
		p.Journal = j
	}

	sizeGB := flashSystemSize
	if sizeGB == 0 {
		capacity, err := p.Prober.CapacityBytes(device)
		if err != nil {
			fatal(cons, err)
		}

		sizeGB, err = prompter.AskInt("Enter the size for the system partition in GB",
			disk.SuggestedSizeGB(capacity))
		if err != nil {
			fatal(cons, err)
		}
	}

	image, err := askImagePath(cons, prompter, flashImagePath, cfg.Image.Path)
	if err != nil {
		fatal(cons, err)
	}

	err = p.Run(provision.Request{
		Device:       device,
		ImagePath:    image,
		SystemSizeGB: sizeGB,
		Force:        flashForce,
	})
	if err != nil {
		fatal(cons, err)
	}
}

// askImagePath settles on a usable image path. A path given as a flag
// is validated once and fatal when bad; a prompted path is re-prompted
// until it points at a file.
func askImagePath(cons *console.Console, prompter console.Prompter, fromFlag, configured string) (string, error) {
	path := fromFlag

	for {
		if path == "" {
			answer, err := prompter.AskString("Enter the image path", configured)
			if err != nil {
				return "", err
			}
			path = answer
		}

		info, err := os.Stat(path)
		switch {
		case err != nil || info.IsDir():
			cons.Errorf("Path %s does not exist. Please enter a valid .img file path.", path)
			if fromFlag != "" {
				return "", fmt.Errorf("image path %s is not a file", path)
			}
			path = ""
			continue

		case filepath.Ext(path) != ".img":
			ok, err := prompter.Confirm(fmt.Sprintf("File %s does not appear to be an .img file. Are you sure?", path))
			if err != nil {
				return "", err
			}
			if !ok {
				if fromFlag != "" {
					return "", provision.ErrAborted
				}
				path = ""
				continue
			}
		}

		return path, nil
	}
}

func fatal(cons *console.Console, err error) {
	if errors.Is(err, provision.ErrAborted) {
		cons.Errorf("Operation cancelled.")
	} else {
		cons.Errorf("Error: %v", err)
	}
	os.Exit(1)
}
