package disk

import "errors"

var (
	// ErrDeviceNotEmpty means the device already carries partitions and
	// erasing was not requested.
	ErrDeviceNotEmpty = errors.New("device is not empty")

	// ErrUnsupportedTable means the partition table is not a scheme the
	// resize sequence knows how to handle.
	ErrUnsupportedTable = errors.New("unsupported partition table")

	// ErrMissingSystemPartition means the flashed image did not produce
	// the expected system partition.
	ErrMissingSystemPartition = errors.New("system partition not found")

	// ErrMissingTableData means the table snapshot lacks the device
	// geometry line, so total capacity in sectors is unknown.
	ErrMissingTableData = errors.New("partition table is missing device geometry")

	// ErrInsufficientSpace means the requested system size leaves no
	// room for a data partition.
	ErrInsufficientSpace = errors.New("not enough space for the data partition")
)
