package disk

import "fmt"

// Partition indexes of the flashed base image. The image ships a boot
// and a system partition; provisioning grows the system partition and
// adds the data partition after it.
const (
	BootPartition   = 1
	SystemPartition = 2
	DataPartition   = 3
)

// Plan holds the sector boundaries for one resize run: the new end of
// the system partition and the extent of the data partition carved from
// the remaining space.
type Plan struct {
	SystemNewEnd uint64
	DataStart    uint64
	DataEnd      uint64
}

// BuildPlan computes aligned boundaries for growing the system
// partition to systemGB and giving everything after it to the data
// partition. Only DOS tables are supported.
func BuildPlan(table *Table, tableType TableType, systemGB int) (*Plan, error) {
	if tableType != TableDOS {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTable, tableType)
	}
	if table.TotalSectors == 0 {
		return nil, ErrMissingTableData
	}
	system, ok := table.Partitions[SystemPartition]
	if !ok {
		return nil, ErrMissingSystemPartition
	}

	systemNewEnd := Align(system.Start+GBToSectors(systemGB), DefaultAlignment)
	dataStart := Align(systemNewEnd+1, DefaultAlignment)
	dataEnd := AlignDown(table.TotalSectors-1, DefaultAlignment)

	if systemNewEnd >= table.TotalSectors || dataStart >= dataEnd {
		return nil, fmt.Errorf("%w: data partition would span %ds to %ds on a %ds device",
			ErrInsufficientSpace, dataStart, dataEnd, table.TotalSectors)
	}

	return &Plan{
		SystemNewEnd: systemNewEnd,
		DataStart:    dataStart,
		DataEnd:      dataEnd,
	}, nil
}
