package disk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/shell/fakes"
)

func TestCapacityBytes(t *testing.T) {
	runner := fakes.NewFakeRunner()
	runner.AddResult("lsblk -b -d -o SIZE -n /dev/sdb", fakes.FakeResult{Stdout: "500107862016\n"})

	capacity, err := disk.NewProber(runner).CapacityBytes("/dev/sdb")
	require.NoError(t, err)
	assert.Equal(t, uint64(500107862016), capacity)
}

func TestCapacityBytesUnparseable(t *testing.T) {
	runner := fakes.NewFakeRunner()
	runner.AddResult("lsblk -b -d -o SIZE -n /dev/sdb", fakes.FakeResult{Stdout: "garbage\n"})

	_, err := disk.NewProber(runner).CapacityBytes("/dev/sdb")
	assert.Error(t, err)
}

func TestCapacityBytesCommandFailure(t *testing.T) {
	runner := fakes.NewFakeRunner()
	runner.AddResult("lsblk -b -d -o SIZE -n /dev/sdb", fakes.FakeResult{Stderr: "lsblk: /dev/sdb: not a block device\n", ExitCode: 32})

	_, err := disk.NewProber(runner).CapacityBytes("/dev/sdb")

	var exitErr *shell.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 32, exitErr.Result.ExitCode)
}

func TestIsEmpty(t *testing.T) {
	for _, test := range []struct {
		name  string
		lsblk string
		want  bool
	}{
		{
			name:  "bare device",
			lsblk: "NAME MAJ:MIN RM  SIZE RO TYPE MOUNTPOINTS\nsdb    8:16  1 465.8G  0 disk\n",
			want:  true,
		},
		{
			name: "two partitions",
			lsblk: "NAME MAJ:MIN RM  SIZE RO TYPE MOUNTPOINTS\n" +
				"sdb    8:16  1 465.8G  0 disk\n" +
				"sdb1   8:17  1   512M  0 part\n" +
				"sdb2   8:18  1   100G  0 part\n",
			want: false,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			runner := fakes.NewFakeRunner()
			runner.AddResult("partprobe /dev/sdb", fakes.FakeResult{})
			runner.AddResult("lsblk /dev/sdb", fakes.FakeResult{Stdout: test.lsblk})

			empty, err := disk.NewProber(runner).IsEmpty("/dev/sdb")
			require.NoError(t, err)
			assert.Equal(t, test.want, empty)

			// Emptiness is always judged on a fresh probe.
			assert.Equal(t, []string{"partprobe /dev/sdb", "lsblk /dev/sdb"}, runner.Calls)
		})
	}
}

func TestTableTypeOf(t *testing.T) {
	runner := fakes.NewFakeRunner()
	runner.AddResult("fdisk -l /dev/sdb", fakes.FakeResult{Stdout: "Disklabel type: dos\n"})

	tableType, err := disk.NewProber(runner).TableTypeOf("/dev/sdb")
	require.NoError(t, err)
	assert.Equal(t, disk.TableDOS, tableType)
}

func TestReadTable(t *testing.T) {
	runner := fakes.NewFakeRunner()
	runner.AddResult("parted /dev/sdb -ms unit s print", fakes.FakeResult{Stdout: partedOutput})

	table, err := disk.NewProber(runner).ReadTable("/dev/sdb")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), table.TotalSectors)
	assert.Len(t, table.Partitions, 2)
}
