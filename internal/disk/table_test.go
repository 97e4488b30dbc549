package disk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
)

const partedOutput = `BYT;
/dev/sdb:1000000s:scsi:512:512:msdos:QEMU HARDDISK:;
1:2048s:526335s:524288s:fat32::boot, lba;
2:526336s:1000000s:473665s:ext4::;
`

func TestParseTable(t *testing.T) {
	table, err := disk.ParseTable(partedOutput, "/dev/sdb")
	require.NoError(t, err)

	assert.Equal(t, uint64(1000000), table.TotalSectors)
	require.Len(t, table.Partitions, 2)

	boot := table.Partitions[1]
	assert.Equal(t, uint64(2048), boot.Start)
	assert.Equal(t, uint64(526335), boot.End)
	assert.Equal(t, uint64(524288), boot.Length)
	assert.Equal(t, "fat32", boot.Filesystem)

	system := table.Partitions[2]
	assert.Equal(t, uint64(526336), system.Start)
	assert.Equal(t, uint64(1000000), system.End)
	assert.Equal(t, uint64(473665), system.Length)
	assert.Equal(t, "ext4", system.Filesystem)
}

func TestParseTableIdempotent(t *testing.T) {
	first, err := disk.ParseTable(partedOutput, "/dev/sdb")
	require.NoError(t, err)
	second, err := disk.ParseTable(partedOutput, "/dev/sdb")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseTableWithoutDeviceLine(t *testing.T) {
	out := "BYT;\n1:2048s:526335s:524288s:fat32::boot, lba;\n"

	table, err := disk.ParseTable(out, "/dev/sdb")
	require.NoError(t, err)

	assert.Zero(t, table.TotalSectors)
	assert.Len(t, table.Partitions, 1)
}

func TestParseTableEmptyDisk(t *testing.T) {
	out := "BYT;\n/dev/sdb:1000000s:scsi:512:512:msdos:QEMU HARDDISK:;\n"

	table, err := disk.ParseTable(out, "/dev/sdb")
	require.NoError(t, err)

	assert.Equal(t, uint64(1000000), table.TotalSectors)
	assert.Empty(t, table.Partitions)
}

func TestParseTableMalformed(t *testing.T) {
	for _, test := range []struct {
		name   string
		output string
	}{
		{name: "garbage record", output: "BYT;\nnot-a-partition-line;\n"},
		{name: "non-numeric start", output: "BYT;\n1:xs:526335s:524288s:fat32::;\n"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := disk.ParseTable(test.output, "/dev/sdb")
			assert.Error(t, err)
		})
	}
}

func TestDetectTableType(t *testing.T) {
	for _, test := range []struct {
		name   string
		output string
		want   disk.TableType
	}{
		{
			name:   "dos",
			output: "Disk /dev/sdb: 465.76 GiB\nDisklabel type: dos\nDisk identifier: 0x1234abcd\n",
			want:   disk.TableDOS,
		},
		{
			name:   "gpt",
			output: "Disk /dev/sdb: 465.76 GiB\nDisklabel type: gpt\n",
			want:   disk.TableGPT,
		},
		{
			name:   "no disklabel at all",
			output: "Disk /dev/sdb: 465.76 GiB\nUnits: sectors of 1 * 512 = 512 bytes\n",
			want:   disk.TableUnknown,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, disk.DetectTableType(test.output))
		})
	}
}

func TestPartitionDevice(t *testing.T) {
	for _, test := range []struct {
		device string
		n      int
		want   string
	}{
		{device: "/dev/sda", n: 2, want: "/dev/sda2"},
		{device: "/dev/sdb", n: 3, want: "/dev/sdb3"},
		{device: "/dev/mmcblk0", n: 2, want: "/dev/mmcblk0p2"},
		{device: "/dev/nvme0n1", n: 3, want: "/dev/nvme0n1p3"},
	} {
		t.Run(test.want, func(t *testing.T) {
			assert.Equal(t, test.want, disk.PartitionDevice(test.device, test.n))
		})
	}
}

func TestLooksLikePartition(t *testing.T) {
	for _, test := range []struct {
		device string
		want   bool
	}{
		{device: "/dev/sda", want: false},
		{device: "/dev/sda1", want: true},
		{device: "/dev/sdab2", want: true},
		{device: "/dev/mmcblk0", want: false},
		{device: "/dev/mmcblk0p1", want: true},
		{device: "/dev/nvme0n1", want: false},
		{device: "/dev/nvme0n1p3", want: true},
		{device: "/dev/vdb", want: false},
		{device: "/dev/vdb1", want: true},
	} {
		t.Run(test.device, func(t *testing.T) {
			assert.Equal(t, test.want, disk.LooksLikePartition(test.device))
		})
	}
}
