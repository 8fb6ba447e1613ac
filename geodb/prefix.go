package geodb

import (
	"fmt"
	"net/netip"

	"github.com/cloud66-oss/ipgeo/utils"
)

// NetworkPrefix returns the network containing ip under a mask of
// maskLength bits, rendered as "network/maskLength". ip does not have to be
// a network address: host bits are zeroed.
func NetworkPrefix(ip string, maskLength int) (string, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", &utils.IpAddressError{Address: ip}
	}

	// mmdb lookups report IPv4 prefix lengths for mapped addresses
	if addr.Is4In6() && maskLength <= 32 {
		addr = addr.Unmap()
	}

	prefix, err := addr.WithZone("").Prefix(maskLength)
	if err != nil {
		return "", fmt.Errorf("invalid mask length %d for %s: %w", maskLength, ip, err)
	}

	return prefix.String(), nil
}
