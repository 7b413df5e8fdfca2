package console

import (
	"fmt"

	"github.com/ericogr/sensecap-to-mqtt/pkg/output"
)

// ConsoleOutput prints display commands to stdout instead of driving a panel.
type ConsoleOutput struct{}

func NewConsole() output.Display { return &ConsoleOutput{} }

func (c *ConsoleOutput) SetText(ref output.Ref, text string) error {
	_, err := fmt.Println(output.Command(ref, text))
	return err
}
