// Package link provides the byte streams the bridge reads sensor frames from.
package link

import "io"

// Port is the duplex byte channel to the sensor co-processor. Read must not
// block for long: returning 0, nil means no data is available right now.
type Port interface {
	io.ReadWriter
	io.Closer
}
