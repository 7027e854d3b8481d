package transport

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// BoardKind categorizes tester boards by their USB bridge.
type BoardKind string

const (
	BoardKindArduino   BoardKind = "arduino"
	BoardKindUSBSerial BoardKind = "usb-serial"
	BoardKindSim       BoardKind = "simulator"
)

// SimPort is the port name that selects the in-memory simulator.
const SimPort = "sim"

// BoardInfo describes a detected tester board.
type BoardInfo struct {
	Kind        BoardKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Serial      string
	Port        string
}

// Label returns a user-friendly description for the board.
func (b BoardInfo) Label() string {
	if b.Description != "" {
		return b.Description
	}
	if b.Kind != "" {
		return fmt.Sprintf("%s (%04X:%04X)", string(b.Kind), b.VendorID, b.ProductID)
	}
	return fmt.Sprintf("Board %04X:%04X", b.VendorID, b.ProductID)
}

// DiscoverBoards enumerates connected USB devices that match known Arduino
// and USB-serial bridge VID/PID pairs. It always returns the simulator entry
// so the tool can be exercised without hardware connected.
func DiscoverBoards(ctx context.Context) ([]BoardInfo, error) {
	var results []BoardInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if info, ok := classifyUSB(uint16(desc.Vendor), uint16(desc.Product)); ok {
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, fmt.Errorf("transport: usb enumeration: %w", err)
	}

	results = append(results, simBoard())
	return results, nil
}

func simBoard() BoardInfo {
	return BoardInfo{
		Kind:        BoardKindSim,
		Description: "Simulator (no hardware)",
		Port:        SimPort,
	}
}

func classifyUSB(vid, pid uint16) (BoardInfo, bool) {
	for _, known := range knownArduinoVIDPIDs {
		if vid == known.VendorID && (known.ProductID == 0 || pid == known.ProductID) {
			return BoardInfo{
				Kind:        BoardKindArduino,
				Description: known.Description,
				VendorID:    vid,
				ProductID:   pid,
			}, true
		}
	}
	for _, known := range knownBridgeVIDPIDs {
		if vid == known.VendorID && pid == known.ProductID {
			return BoardInfo{
				Kind:        BoardKindUSBSerial,
				Description: known.Description,
				VendorID:    vid,
				ProductID:   pid,
			}, true
		}
	}
	return BoardInfo{}, false
}

type knownUSBDevice struct {
	VendorID    uint16
	ProductID   uint16 // 0 matches any product of the vendor
	Description string
}

var knownArduinoVIDPIDs = []knownUSBDevice{
	{VendorID: 0x2341, ProductID: 0x0043, Description: "Arduino Uno"},
	{VendorID: 0x2341, ProductID: 0x0001, Description: "Arduino Uno"},
	{VendorID: 0x2341, ProductID: 0x0042, Description: "Arduino Mega 2560"},
	{VendorID: 0x2341, ProductID: 0x0010, Description: "Arduino Mega 2560"},
	{VendorID: 0x2A03, ProductID: 0x0043, Description: "Arduino Uno (arduino.org)"},
	{VendorID: 0x2A03, ProductID: 0x0042, Description: "Arduino Mega 2560 (arduino.org)"},
	{VendorID: 0x2341, ProductID: 0, Description: "Arduino board"},
}

// Clone boards ship one of these bridges instead of the 16U2.
var knownBridgeVIDPIDs = []knownUSBDevice{
	{VendorID: 0x1A86, ProductID: 0x7523, Description: "CH340 USB-serial (clone board)"},
	{VendorID: 0x0403, ProductID: 0x6001, Description: "FTDI FT232R USB-serial"},
	{VendorID: 0x10C4, ProductID: 0xEA60, Description: "CP210x USB-serial"},
}
