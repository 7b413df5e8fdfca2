// Package output defines the two sinks the bridge pushes readings into: a
// display addressed by object reference and a retained pub/sub channel.
package output

// Display sets the text of a display object.
type Display interface {
	SetText(ref Ref, text string) error
}

// Messaging publishes payloads to named topics.
type Messaging interface {
	IsConnected() bool
	Publish(topic string, payload []byte, retain bool) error
}

// helper constructors are in subpackages
