package kube

import "strings"

// PortProtocol is a container/service port's transport protocol.
type PortProtocol int

const (
	ProtocolTCP PortProtocol = iota
	ProtocolUDP
	ProtocolSCTP
)

// String renders the protocol the way Kubernetes manifests spell it.
func (p PortProtocol) String() string {
	switch p {
	case ProtocolUDP:
		return "UDP"
	case ProtocolSCTP:
		return "SCTP"
	default:
		return "TCP"
	}
}

// ProtocolFrom parses a protocol string case-insensitively, defaulting to
// TCP for an empty or unrecognized value (spec.md §6 normalization rules).
func ProtocolFrom(value string) PortProtocol {
	switch strings.ToUpper(value) {
	case "UDP":
		return ProtocolUDP
	case "SCTP":
		return ProtocolSCTP
	default:
		return ProtocolTCP
	}
}

// Port is a single named, protocol-typed port exposed by a pod/service.
type Port struct {
	Port     uint16
	Name     string
	Protocol PortProtocol
}
