package cloudinit

import (
	"fmt"
	"net/netip"
)

// hostAddress returns the idx-th address of the network, counting from
// the network address itself, formatted with the network's prefix
// length the way netplan wants it.
func hostAddress(network netip.Prefix, idx int) (string, error) {
	addr := network.Masked().Addr()
	for i := 0; i < idx; i++ {
		addr = addr.Next()
		if !network.Contains(addr) {
			return "", fmt.Errorf("host %d does not fit in %s", idx+1, network)
		}
	}
	return fmt.Sprintf("%s/%d", addr, network.Bits()), nil
}
