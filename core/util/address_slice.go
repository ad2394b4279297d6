package util

// EthereumAddressesToStrings converts a slice of EthereumAddress to their lowercase hex string representation.
func EthereumAddressesToStrings(addrs []EthereumAddress) []string {
	strs := make([]string, len(addrs))
	for i, a := range addrs {
		strs[i] = a.Address()
	}
	return strs
}

// UniqueAddresses drops repeated addresses, keeping first-seen order.
func UniqueAddresses(addrs []EthereumAddress) []EthereumAddress {
	seen := make(map[EthereumAddress]struct{}, len(addrs))
	out := make([]EthereumAddress, 0, len(addrs))
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
