package disk

import (
	"fmt"
	"strconv"
	"strings"
)

// TableType identifies the partition table scheme on a device.
type TableType string

const (
	TableDOS     TableType = "dos"
	TableGPT     TableType = "gpt"
	TableUnknown TableType = "unknown"
)

// Entry is one partition of a table snapshot, in sectors.
type Entry struct {
	Start      uint64
	End        uint64
	Length     uint64
	Filesystem string
}

// Table is a point-in-time snapshot of a device's partition table.
// Probes build a fresh Table every time; nothing updates one in place.
type Table struct {
	// TotalSectors is zero when the snapshot lacked the device
	// geometry line.
	TotalSectors uint64
	Partitions   map[int]Entry
}

// ParseTable reads the machine-readable output of
// `parted -ms <device> unit s print`. The format is one colon-separated
// record per line: a BYT header, a device line whose second field is
// the total sector count, and one line per partition
// (index:start:end:length:filesystem:...). Sector fields carry an `s`
// suffix.
func ParseTable(output, device string) (*Table, error) {
	table := &Table{Partitions: map[int]Entry{}}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "BYT") {
			continue
		}

		if strings.Contains(line, device) {
			fields := strings.Split(line, ":")
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed device line %q", line)
			}
			total, err := parseSectors(fields[1])
			if err != nil {
				return nil, fmt.Errorf("parsing total sectors from %q: %w", line, err)
			}
			table.TotalSectors = total
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) < 5 {
			return nil, fmt.Errorf("malformed partition record %q", line)
		}

		index, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("parsing partition index from %q: %w", line, err)
		}
		start, err := parseSectors(fields[1])
		if err != nil {
			return nil, fmt.Errorf("parsing partition %d start: %w", index, err)
		}
		end, err := parseSectors(fields[2])
		if err != nil {
			return nil, fmt.Errorf("parsing partition %d end: %w", index, err)
		}
		length, err := parseSectors(fields[3])
		if err != nil {
			return nil, fmt.Errorf("parsing partition %d length: %w", index, err)
		}

		table.Partitions[index] = Entry{
			Start:      start,
			End:        end,
			Length:     length,
			Filesystem: fields[4],
		}
	}

	return table, nil
}

func parseSectors(field string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSuffix(strings.TrimSpace(field), "s"), 10, 64)
}

// DetectTableType classifies `fdisk -l` output by its disklabel line.
// Anything that is neither dos nor gpt, including an unreadable device,
// comes back as TableUnknown.
func DetectTableType(fdiskOutput string) TableType {
	switch {
	case strings.Contains(fdiskOutput, "Disklabel type: dos"):
		return TableDOS
	case strings.Contains(fdiskOutput, "Disklabel type: gpt"):
		return TableGPT
	}
	return TableUnknown
}

// PartitionDevice returns the device node for partition n of device.
// Devices whose name ends in a digit (mmcblk, nvme) separate the
// partition number with a p.
func PartitionDevice(device string, n int) string {
	if device != "" {
		if last := device[len(device)-1]; last >= '0' && last <= '9' {
			return fmt.Sprintf("%sp%d", device, n)
		}
	}
	return fmt.Sprintf("%s%d", device, n)
}

// LooksLikePartition reports whether a device path names a partition
// node rather than a whole disk.
func LooksLikePartition(device string) bool {
	name := strings.TrimPrefix(device, "/dev/")

	// mmcblk0p1, nvme0n1p2 and friends
	if i := strings.LastIndex(name, "p"); i > 0 && i < len(name)-1 {
		before := name[i-1]
		if before >= '0' && before <= '9' && allDigits(name[i+1:]) {
			return true
		}
	}

	// sda1, vdb2, xvda3
	for _, prefix := range []string{"sd", "vd", "xvd", "hd"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		rest = strings.TrimLeft(rest, "abcdefghijklmnopqrstuvwxyz")
		if rest != "" && allDigits(rest) {
			return true
		}
	}

	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
