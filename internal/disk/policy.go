package disk

const (
	// MinSystemSizeGB is the smallest system partition worth creating.
	// Below this the OS plus a k3s runtime and images will not fit.
	MinSystemSizeGB = 20

	bytesPerGB = uint64(1024 * 1024 * 1024)
)

// Verdict classifies a requested system partition size against the
// device it should land on.
type Verdict int

const (
	// SizeOK means the request passes every check.
	SizeOK Verdict = iota

	// SizeTooSmall means the request is under MinSystemSizeGB.
	SizeTooSmall

	// SizeExceedsCapacity means the request does not fit on the device
	// at all.
	SizeExceedsCapacity

	// SizeNeedsConfirmation means the request fits but claims more than
	// half the device, which is usually a typo. The caller must confirm
	// before proceeding.
	SizeNeedsConfirmation
)

// CheckSize validates a requested system partition size in GiB against
// the device capacity in bytes. Checks apply in order of severity.
func CheckSize(requestedGB int, capacityBytes uint64) Verdict {
	if requestedGB < MinSystemSizeGB {
		return SizeTooSmall
	}

	requestedBytes := uint64(requestedGB) * bytesPerGB
	switch {
	case requestedBytes > capacityBytes:
		return SizeExceedsCapacity
	case requestedBytes > capacityBytes/2:
		return SizeNeedsConfirmation
	}
	return SizeOK
}

// SuggestedSizeGB proposes a default system partition size: a third of
// the device, but never below 100 GiB.
func SuggestedSizeGB(capacityBytes uint64) int {
	gb := int(capacityBytes / bytesPerGB / 3)
	if gb < 100 {
		return 100
	}
	return gb
}
