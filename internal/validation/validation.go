// Package validation checks user-supplied hosts, addresses and file names
// before they reach the network or the filesystem.
package validation

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
)

var dangerousHostChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}

// ValidateHost rejects hosts carrying shell metacharacters or whitespace.
// An empty host is valid and means every interface.
func ValidateHost(host string) error {
	for _, char := range dangerousHostChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("host contains dangerous character: %q", char)
		}
	}
	return nil
}

// ValidateListenAddr validates a host:port listen address. Port 0 asks the
// kernel for a free port.
func ValidateListenAddr(addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if err := ValidateHost(host); err != nil {
		return err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port %q in listen address", portStr)
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", port)
	}
	return nil
}

// ValidateName checks that a requested file name stays inside the served
// directory: relative, without ".." escapes and without NUL bytes.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("name contains a NUL byte")
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return fmt.Errorf("name %q is not local to the served directory", name)
	}
	return nil
}
