package provision

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/console"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/journal"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

// ErrAborted means the user declined a confirmation before a
// destructive step. Nothing was mutated past the last confirmed step.
var ErrAborted = errors.New("aborted by user")

// SettleDelay is how long to wait after the image copy before trusting
// the kernel's view of the partition table again.
const SettleDelay = 5 * time.Second

// Request describes one provisioning run.
type Request struct {
	Device       string
	ImagePath    string
	SystemSizeGB int

	// Force erases a non-empty device (after confirmation) instead of
	// refusing to touch it.
	Force bool
}

// Provisioner flashes a base image onto a device, grows the system
// partition to the requested size and carves a data partition from the
// rest. The sequence is linear and not resumable: a failed run leaves
// the device partially modified and the operator re-runs after
// remediation.
type Provisioner struct {
	Runner   shell.Runner
	Prober   *disk.Prober
	Console  *console.Console
	Prompter console.Prompter

	// Journal is optional; journaling failures are warnings, never
	// reasons to stop a run.
	Journal *journal.Journal

	// Settle overrides SettleDelay, for tests.
	Settle time.Duration
}

func New(runner shell.Runner, cons *console.Console, prompter console.Prompter) *Provisioner {
	return &Provisioner{
		Runner:   runner,
		Prober:   disk.NewProber(runner),
		Console:  cons,
		Prompter: prompter,
		Settle:   SettleDelay,
	}
}

// Run executes the full provisioning sequence for one request.
func (p *Provisioner) Run(req Request) error {
	r := &run{Provisioner: p, req: req}

	if p.Journal != nil {
		id, err := p.Journal.StartRun(req.Device, req.ImagePath, req.SystemSizeGB)
		if err != nil {
			p.Console.Warnf("journal: %v", err)
		} else {
			r.runID = id
		}
	}

	err := r.provision()
	r.finish(err)
	return err
}

type run struct {
	*Provisioner
	req   Request
	runID string
}

func (r *run) provision() error {
	device := r.req.Device

	if err := r.probed("probe", func() error { return r.Prober.Refresh(device) }); err != nil {
		return err
	}

	capacity, err := r.Prober.CapacityBytes(device)
	if err != nil {
		r.record("capacity", journal.StepFailed, err.Error())
		return err
	}
	r.Console.Successf("Using device: %s (%s)", device, humanize.IBytes(capacity))

	if err := r.validateSize(capacity); err != nil {
		return err
	}

	if err := r.checkEmpty(device); err != nil {
		return err
	}

	if err := r.copyImage(device); err != nil {
		return err
	}

	r.Console.Infof("Waiting for the device to be recognized...")
	time.Sleep(r.Settle)
	r.record("settle", journal.StepOK, r.Settle.String())

	tableType, err := r.Prober.TableTypeOf(device)
	if err != nil {
		r.record("detect-table", journal.StepFailed, err.Error())
		return err
	}
	if tableType != disk.TableDOS {
		r.record("detect-table", journal.StepFailed, string(tableType))
		return fmt.Errorf("%w: %s has a %s partition table", disk.ErrUnsupportedTable, device, tableType)
	}
	r.Console.Successf("Detected DOS partition table.")
	r.record("detect-table", journal.StepOK, string(tableType))

	systemPart := disk.PartitionDevice(device, disk.SystemPartition)
	dataPart := disk.PartitionDevice(device, disk.DataPartition)

	r.Console.Infof("Checking the system partition filesystem...")
	r.bestEffort("fsck-system", "e2fsck", "-f", "-y", systemPart)

	table, err := r.Prober.ReadTable(device)
	if err != nil {
		r.record("read-table", journal.StepFailed, err.Error())
		return err
	}

	plan, err := disk.BuildPlan(table, tableType, r.req.SystemSizeGB)
	if err != nil {
		r.record("build-plan", journal.StepFailed, err.Error())
		return err
	}
	r.record("build-plan", journal.StepOK,
		fmt.Sprintf("system end %ds, data %ds-%ds", plan.SystemNewEnd, plan.DataStart, plan.DataEnd))

	r.Console.Infof("Resizing the system partition...")
	if _, err := r.strict("resize-system",
		"parted", device, "--script", "resizepart", "2", fmt.Sprintf("%ds", plan.SystemNewEnd)); err != nil {
		return err
	}
	r.bestEffort("fsck-system", "e2fsck", "-f", "-y", systemPart)

	r.Console.Infof("Creating the data partition in the remaining space...")
	if _, err := r.strict("create-data",
		"parted", device, "--script", "mkpart", "primary",
		fmt.Sprintf("%ds", plan.DataStart), fmt.Sprintf("%ds", plan.DataEnd)); err != nil {
		return err
	}

	r.Console.Infof("Formatting the data partition...")
	if _, err := r.strict("format-data", "mkfs.ext4", dataPart); err != nil {
		return err
	}
	r.bestEffort("fsck-data", "e2fsck", "-f", "-y", dataPart)

	r.Console.Successf("Provisioning complete: system on %s, data on %s.", systemPart, dataPart)
	return nil
}

func (r *run) validateSize(capacityBytes uint64) error {
	gb := r.req.SystemSizeGB

	switch disk.CheckSize(gb, capacityBytes) {
	case disk.SizeTooSmall:
		r.record("validate-size", journal.StepFailed, "too small")
		return fmt.Errorf("the system partition size should be at least %d GB", disk.MinSystemSizeGB)
	case disk.SizeExceedsCapacity:
		r.record("validate-size", journal.StepFailed, "exceeds capacity")
		return fmt.Errorf("the system size (%d GB) exceeds the device capacity (%s)",
			gb, humanize.IBytes(capacityBytes))
	case disk.SizeNeedsConfirmation:
		ok, err := r.Prompter.Confirm(fmt.Sprintf(
			"The system size might be too large (%d GB of %s total). Are you sure?",
			gb, humanize.IBytes(capacityBytes)))
		if err != nil {
			return err
		}
		if !ok {
			r.record("validate-size", journal.StepFailed, "oversize declined")
			return ErrAborted
		}
	}

	r.record("validate-size", journal.StepOK, fmt.Sprintf("%d GB", gb))
	return nil
}

func (r *run) checkEmpty(device string) error {
	empty, err := r.Prober.IsEmpty(device)
	if err != nil {
		r.record("check-empty", journal.StepFailed, err.Error())
		return err
	}
	if empty {
		r.record("check-empty", journal.StepOK, "empty")
		return nil
	}

	if !r.req.Force {
		r.record("check-empty", journal.StepFailed, "not empty")
		return fmt.Errorf("%w: %s already carries partitions, use --force to erase them",
			disk.ErrDeviceNotEmpty, device)
	}

	ok, err := r.Prompter.Confirm(fmt.Sprintf("Are you sure you want to erase all partitions on %s?", device))
	if err != nil {
		return err
	}
	if !ok {
		r.record("erase", journal.StepFailed, "declined")
		return ErrAborted
	}

	r.Console.Warnf("Erasing all partitions on %s...", device)
	if _, err := r.strict("erase", "parted", device, "--script", "mklabel", "msdos"); err != nil {
		return err
	}
	return r.probed("probe", func() error { return r.Prober.Refresh(device) })
}

// strict runs a command that must succeed; a non-zero exit stops the run.
func (r *run) strict(step, name string, args ...string) (shell.Result, error) {
	cmdLine := shell.CommandLine(name, args...)

	result, err := r.Runner.Run(name, args...)
	if err == nil && result.ExitCode != 0 {
		err = shell.NewExitError(cmdLine, result)
	}
	if err != nil {
		r.record(step, journal.StepFailed, cmdLine)
		return result, err
	}
	r.record(step, journal.StepOK, cmdLine)
	return result, nil
}

// bestEffort runs a command whose failure is noted and ignored.
// External filesystem checkers routinely exit non-zero on a filesystem
// that is perfectly usable.
func (r *run) bestEffort(step, name string, args ...string) {
	cmdLine := shell.CommandLine(name, args...)

	result, err := r.Runner.Run(name, args...)
	switch {
	case err != nil:
		r.Console.Warnf("%s could not run: %v (continuing)", name, err)
		r.record(step, journal.StepIgnored, cmdLine)
	case result.ExitCode != 0:
		r.Console.Warnf("%s exited %d (continuing)", name, result.ExitCode)
		r.record(step, journal.StepIgnored, cmdLine)
	default:
		r.record(step, journal.StepOK, cmdLine)
	}
}

func (r *run) probed(step string, probe func() error) error {
	if err := probe(); err != nil {
		r.record(step, journal.StepFailed, err.Error())
		return err
	}
	r.record(step, journal.StepOK, "")
	return nil
}

func (r *run) record(step, status, detail string) {
	if r.Journal == nil || r.runID == "" {
		return
	}
	if err := r.Journal.AddStep(r.runID, step, status, detail); err != nil {
		r.Console.Warnf("journal: %v", err)
	}
}

func (r *run) finish(runErr error) {
	if r.Journal == nil || r.runID == "" {
		return
	}

	status := journal.StatusDone
	detail := ""
	switch {
	case errors.Is(runErr, ErrAborted):
		status = journal.StatusAborted
		detail = runErr.Error()
	case runErr != nil:
		status = journal.StatusFailed
		detail = runErr.Error()
	}

	if err := r.Journal.FinishRun(r.runID, status, detail); err != nil {
		r.Console.Warnf("journal: %v", err)
	}
}
