package control

import (
	"fmt"
	"strconv"
	"strings"

	fbperrors "github.com/c360/fbpcore/errors"
	"github.com/c360/fbpcore/network"
)

// ParsePortRef parses the wire form of a port reference.
func ParsePortRef(s string) (network.PortRef, error) {
	component, rest, ok := strings.Cut(s, ".")
	if !ok || component == "" || rest == "" {
		return network.PortRef{}, fbperrors.WrapInvalid(fmt.Errorf("malformed port reference %q", s), "control", "ParsePortRef")
	}

	portName := rest
	var index *int
	if open := strings.IndexByte(rest, '['); open >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return network.PortRef{}, fbperrors.WrapInvalid(fmt.Errorf("malformed array index in %q", s), "control", "ParsePortRef")
		}
		portName = rest[:open]
		n, err := strconv.Atoi(rest[open+1 : len(rest)-1])
		if err != nil {
			return network.PortRef{}, fbperrors.WrapInvalid(fmt.Errorf("malformed array index in %q", s), "control", "ParsePortRef")
		}
		index = &n
	}

	return network.PortRef{Component: component, Port: portName, Index: index}, nil
}

// FormatPortRef renders a PortRef back to its wire form.
func FormatPortRef(ref network.PortRef) string {
	if ref.Index != nil {
		return fmt.Sprintf("%s.%s[%d]", ref.Component, ref.Port, *ref.Index)
	}
	return fmt.Sprintf("%s.%s", ref.Component, ref.Port)
}
