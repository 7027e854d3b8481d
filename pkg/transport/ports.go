package transport

import (
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port present on the host.
type PortInfo struct {
	Name      string
	USB       bool
	VendorID  uint16
	ProductID uint16
	Serial    string
	Product   string
	// Board is the recognized tester board behind the port, if any.
	Board *BoardInfo
}

// ListPorts returns the serial ports of the host, annotated with the tester
// board recognized behind each USB port.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, portInfo(d.Name, d.IsUSB, d.VID, d.PID, d.SerialNumber, d.Product))
	}
	return ports, nil
}

func portInfo(name string, isUSB bool, vid, pid, serialNumber, product string) PortInfo {
	p := PortInfo{Name: name, USB: isUSB, Serial: serialNumber, Product: product}
	if !isUSB {
		return p
	}
	p.VendorID = parseUSBID(vid)
	p.ProductID = parseUSBID(pid)
	if info, ok := classifyUSB(p.VendorID, p.ProductID); ok {
		info.Serial = serialNumber
		info.Port = name
		p.Board = &info
	}
	return p
}

// parseUSBID reads the 4-digit hex ids the enumerator reports.
func parseUSBID(s string) uint16 {
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}
