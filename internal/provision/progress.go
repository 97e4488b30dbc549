package provision

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uiprogress"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/journal"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
)

func (r *run) copyImage(device string) error {
	info, err := os.Stat(r.req.ImagePath)
	if err != nil {
		r.record("copy-image", journal.StepFailed, err.Error())
		return fmt.Errorf("reading image size: %w", err)
	}
	total := uint64(info.Size())

	r.Console.Infof("Copying %s (%s) to %s...", r.req.ImagePath, humanize.Bytes(total), device)

	args := []string{"if=" + r.req.ImagePath, "of=" + device, "bs=4M", "status=progress"}
	cmdLine := shell.CommandLine("dd", args...)

	onLine, finish := r.progressSink(total)
	result, err := r.Runner.RunStream(onLine, "dd", args...)
	finish()

	if err == nil && result.ExitCode != 0 {
		err = shell.NewExitError(cmdLine, result)
	}
	if err != nil {
		r.record("copy-image", journal.StepFailed, cmdLine)
		return err
	}
	r.record("copy-image", journal.StepOK, cmdLine)

	return r.probed("probe", func() error { return r.Prober.Refresh(device) })
}

// progressSink returns a stderr-line callback that tracks the copy as
// a monotonic byte count, plus a finish func to tear the display down.
// dd keeps printing its running total to stderr; the copy is complete
// when the process exits, not when the count reaches the image size.
func (r *run) progressSink(total uint64) (func(string), func()) {
	copied := uint64(0)

	if !r.Console.Interactive() {
		return func(line string) {
			if n, ok := ParseCopiedBytes(line); ok && n > copied {
				copied = n
			}
		}, func() {}
	}

	uiprogress.Start()
	bar := uiprogress.AddBar(int(total)).AppendCompleted()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(b.Current())), humanize.Bytes(total))
	})

	onLine := func(line string) {
		n, ok := ParseCopiedBytes(line)
		if !ok || n <= copied {
			return
		}
		copied = n
		if n > total {
			n = total
		}
		bar.Set(int(n))
	}
	return onLine, uiprogress.Stop
}

// ParseCopiedBytes extracts the cumulative count from a dd progress
// line such as "1234567168 bytes (1.2 GB, 1.1 GiB) copied, 42 s".
func ParseCopiedBytes(line string) (uint64, bool) {
	if !strings.Contains(line, "bytes") {
		return 0, false
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
