package probe

import (
	"bufio"
	"net"
	"os"
	"strings"
)

const resolvConf = "/etc/resolv.conf"

// SystemResolvers returns the nameservers of the local stub resolver
// configuration.
func SystemResolvers() ([]string, error) {
	return loadResolvers(resolvConf)
}

func loadResolvers(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	resolvers := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.ToLower(fields[0]) != "nameserver" {
			continue
		}
		// drop a zone index such as fe80::1%eth0
		address, _, _ := strings.Cut(fields[1], "%")
		resolvers = append(resolvers, address)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return uniqueResolvers(resolvers), nil
}

func uniqueResolvers(resolvers []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, resolver := range resolvers {
		resolver = strings.TrimSpace(resolver)
		if resolver == "" {
			continue
		}
		key := strings.ToLower(resolver)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, resolver)
	}
	return out
}

func addressHost(address string) string {
	if host, _, err := net.SplitHostPort(address); err == nil {
		return host
	}
	return strings.Trim(address, "[]")
}
