package serial

import (
	"strings"

	bugst "go.bug.st/serial"
)

// PortInfo names one serial device present on the host
type PortInfo struct {
	Name        string
	Description string
}

// listPorts is replaced in tests
var listPorts = bugst.GetPortsList

// Ports lists the serial devices the operating system reports
func Ports() ([]PortInfo, error) {
	names, err := listPorts()
	if err != nil {
		return nil, err
	}
	ports := make([]PortInfo, 0, len(names))
	for _, name := range names {
		ports = append(ports, PortInfo{Name: name, Description: describe(name)})
	}
	return ports, nil
}

func describe(name string) string {
	switch {
	case strings.HasPrefix(name, "/dev/ttyACM"):
		return "USB CDC"
	case strings.HasPrefix(name, "/dev/ttyUSB"):
		return "USB serial adapter"
	case strings.HasPrefix(name, "COM"):
		return "Windows COM port"
	}
	return "serial port"
}
