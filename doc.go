// Package serial provides a small termios serial port for Linux together
// with port discovery helpers. It is the transport underneath the
// telemetry terminal in cmd/serialterm, but has no knowledge of the
// telemetry protocol itself.
//
// # Basic Usage
//
// Open a serial port with default configuration (115200 8N1, no flow control):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	n, err := port.Write([]byte("Hello"))
//	err = port.Drain() // block until the bytes left the UART
//	buffer := make([]byte, 256)
//	n, err = port.Read(buffer) // 0, nil when ReadTimeout elapses
//
// # Configuration Options
//
// Use functional options for custom configuration:
//
//	port, err := serial.Open("/dev/ttyUSB0",
//	    serial.WithBaudRate(9600),
//	    serial.WithParity(serial.ParityEven),
//	    serial.WithStopBits(serial.StopBitsTwo),
//	    serial.WithFlowControl(serial.FlowControlHardware),
//	    serial.WithReadTimeout(200*time.Millisecond),
//	)
//
// A PortConfig bundles the device name with its settings and renders the
// human readable summary shown when a session connects:
//
//	pc, err := serial.NewPortConfig("/dev/ttyUSB0", serial.WithBaudRate(9600))
//	fmt.Println(pc.Short()) // 9600 8N1
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # Error Handling
//
// Errors wrap package sentinels and are checked with errors.Is:
//
//	if errors.Is(err, serial.ErrDeviceLost) {
//	    // the adapter was unplugged; the port must be reopened
//	}
//
// # Default Configuration
//
//   - BaudRate: 115200
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - FlowControl: None
//   - ReadTimeout: 100ms
package serial
