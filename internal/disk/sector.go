package disk

// All geometry in this package is expressed in 512-byte sectors, the
// unit every external tool is invoked with.
const (
	SectorSize = 512

	// DefaultAlignment is 1 MiB in sectors, the boundary modern
	// flash media wants partitions to start on.
	DefaultAlignment = 2048
)

// Align rounds sector up to the next multiple of alignment. An already
// aligned sector is returned unchanged.
func Align(sector, alignment uint64) uint64 {
	if alignment == 0 {
		return sector
	}
	return ((sector + alignment - 1) / alignment) * alignment
}

// AlignDown rounds sector down to the previous multiple of alignment.
func AlignDown(sector, alignment uint64) uint64 {
	if alignment == 0 {
		return sector
	}
	return sector - sector%alignment
}

// GBToSectors converts a size in GiB to sectors, truncating.
func GBToSectors(gb int) uint64 {
	return uint64(gb) * 1024 * 1024 * 1024 / SectorSize
}
