package disk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/disk"
)

// Geometry of a Raspberry Pi OS image flashed onto a 500 GB disk:
// a 512 MiB boot partition followed by the system root.
func imageTable() *disk.Table {
	return &disk.Table{
		TotalSectors: 976773168,
		Partitions: map[int]disk.Entry{
			1: {Start: 8192, End: 1056767, Length: 1048576, Filesystem: "fat32"},
			2: {Start: 1056768, End: 5470207, Length: 4413440, Filesystem: "ext4"},
		},
	}
}

func TestBuildPlan(t *testing.T) {
	plan, err := disk.BuildPlan(imageTable(), disk.TableDOS, 100)
	require.NoError(t, err)

	assert.Equal(t, uint64(210771968), plan.SystemNewEnd)
	assert.Equal(t, uint64(210774016), plan.DataStart)
	assert.Equal(t, uint64(976773120), plan.DataEnd)

	// Every boundary sits on the 1 MiB grid and the data partition
	// starts strictly after the grown system partition.
	assert.Zero(t, plan.SystemNewEnd%disk.DefaultAlignment)
	assert.Zero(t, plan.DataStart%disk.DefaultAlignment)
	assert.Zero(t, plan.DataEnd%disk.DefaultAlignment)
	assert.Greater(t, plan.DataStart, plan.SystemNewEnd)
	assert.Greater(t, plan.DataEnd, plan.DataStart)
	assert.Less(t, plan.DataEnd, imageTable().TotalSectors)
}

func TestBuildPlanUnalignedRequest(t *testing.T) {
	table := imageTable()
	entry := table.Partitions[2]
	entry.Start = 1056769 // knock the system partition off the grid
	table.Partitions[2] = entry

	plan, err := disk.BuildPlan(table, disk.TableDOS, 100)
	require.NoError(t, err)

	assert.Zero(t, plan.SystemNewEnd%disk.DefaultAlignment)
	assert.GreaterOrEqual(t, plan.SystemNewEnd, entry.Start+disk.GBToSectors(100))
}

func TestBuildPlanErrors(t *testing.T) {
	for _, test := range []struct {
		name      string
		table     *disk.Table
		tableType disk.TableType
		systemGB  int
		wantErr   error
	}{
		{
			name:      "gpt table",
			table:     imageTable(),
			tableType: disk.TableGPT,
			systemGB:  100,
			wantErr:   disk.ErrUnsupportedTable,
		},
		{
			name:      "unknown table",
			table:     imageTable(),
			tableType: disk.TableUnknown,
			systemGB:  100,
			wantErr:   disk.ErrUnsupportedTable,
		},
		{
			name: "missing geometry",
			table: &disk.Table{
				Partitions: map[int]disk.Entry{2: {Start: 526336}},
			},
			tableType: disk.TableDOS,
			systemGB:  100,
			wantErr:   disk.ErrMissingTableData,
		},
		{
			name: "missing system partition",
			table: &disk.Table{
				TotalSectors: 976773168,
				Partitions:   map[int]disk.Entry{1: {Start: 8192}},
			},
			tableType: disk.TableDOS,
			systemGB:  100,
			wantErr:   disk.ErrMissingSystemPartition,
		},
		{
			name: "no room left for data",
			table: &disk.Table{
				TotalSectors: 1000000,
				Partitions:   map[int]disk.Entry{2: {Start: 526336}},
			},
			tableType: disk.TableDOS,
			systemGB:  20,
			wantErr:   disk.ErrInsufficientSpace,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := disk.BuildPlan(test.table, test.tableType, test.systemGB)
			assert.ErrorIs(t, err, test.wantErr)
		})
	}
}

func TestBuildPlanFromParsedTable(t *testing.T) {
	table, err := disk.ParseTable(partedOutput, "/dev/sdb")
	require.NoError(t, err)

	// 1000000 sectors is under half a GiB; nothing fits.
	_, err = disk.BuildPlan(table, disk.TableDOS, 20)
	assert.ErrorIs(t, err, disk.ErrInsufficientSpace)
}
