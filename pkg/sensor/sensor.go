// Package sensor holds the readings received from the sensor co-processor
// and the logic that updates and watches them.
package sensor

// State is the latest value of every surfaced reading. Each field is replaced
// wholesale by the most recent packet of its type.
type State struct {
	Temperature float32 `json:"temperature"`
	Humidity    float32 `json:"humidity"`
	CO2         float32 `json:"co2"`
	TVOC        float32 `json:"tvoc"`

	// LastArrival is the uptime in milliseconds of the last valid packet.
	// Zero means no packet arrived since start or since the last staleness
	// warning.
	LastArrival uint32 `json:"last_arrival"`
}

// Clock supplies the current uptime in milliseconds.
type Clock interface {
	Millis() uint32
}
