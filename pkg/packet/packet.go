// Package packet describes the fixed-size readings sent by the sensor
// co-processor: one type byte followed by a little-endian float32.
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Size is the length of every decoded packet.
const Size = 5

// Type identifies the physical quantity carried by a packet.
type Type byte

// Known packet types, as numbered by the RP2040 firmware.
const (
	SCD41Temperature Type = 0xB0
	SCD41Humidity    Type = 0xB1
	SCD41CO2         Type = 0xB2
	AHT20Temperature Type = 0xB3
	AHT20Humidity    Type = 0xB4
	SGP40TVOC        Type = 0xB5
)

// Types lists every known type in wire order.
var Types = []Type{SCD41Temperature, SCD41Humidity, SCD41CO2, AHT20Temperature, AHT20Humidity, SGP40TVOC}

var typeNames = map[Type]string{
	SCD41Temperature: "scd41_temperature",
	SCD41Humidity:    "scd41_humidity",
	SCD41CO2:         "scd41_co2",
	AHT20Temperature: "aht20_temperature",
	AHT20Humidity:    "aht20_humidity",
	SGP40TVOC:        "sgp40_tvoc",
}

// Known reports whether t is one of the types the firmware sends.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// ErrInvalidSize is returned by Parse for frames that are not Size bytes long.
var ErrInvalidSize = errors.New("invalid packet size")

// Packet is one decoded reading. Value is stored exactly as sent, NaN and
// infinities included.
type Packet struct {
	Type  Type
	Value float32
}

// Parse interprets a decoded frame.
func Parse(frame []byte) (Packet, error) {
	if len(frame) != Size {
		return Packet{}, fmt.Errorf("%w: %d", ErrInvalidSize, len(frame))
	}
	return Packet{
		Type:  Type(frame[0]),
		Value: math.Float32frombits(binary.LittleEndian.Uint32(frame[1:])),
	}, nil
}

// MarshalBinary encodes p in the wire layout accepted by Parse.
func (p Packet) MarshalBinary() ([]byte, error) {
	b := make([]byte, Size)
	b[0] = byte(p.Type)
	binary.LittleEndian.PutUint32(b[1:], math.Float32bits(p.Value))
	return b, nil
}
