package util

import (
	"regexp"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

var (
	trc20Address = regexp.MustCompile(`^T[a-zA-Z0-9]{33}$`)
	evmAddress   = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	bnbAddress   = regexp.MustCompile(`^bnb[a-zA-Z0-9]{38}$`)
)

// ValidWithdrawalAddress checks the address format for a network.
// Networks without a known format are accepted.
func ValidWithdrawalAddress(network, addr string) bool {
	network = strings.ToUpper(strings.TrimSpace(network))
	addr = strings.TrimSpace(addr)

	switch {
	case strings.Contains(network, "TRC20"), strings.Contains(network, "TRC-20"):
		return trc20Address.MatchString(addr)
	case network == "BNB":
		return bnbAddress.MatchString(addr)
	case isEvmNetwork(network):
		return evmAddress.MatchString(addr)
	case network == "TON" || strings.HasPrefix(network, "TON-"):
		_, err := address.ParseAddr(addr)
		return err == nil
	default:
		return true
	}
}

func isEvmNetwork(network string) bool {
	for _, n := range []string{"ETH", "ERC20", "ERC-20", "BEP20", "BEP-20", "POLYGON"} {
		if strings.Contains(network, n) {
			return true
		}
	}
	return false
}
