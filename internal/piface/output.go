package piface

import (
	"fmt"
	"sync"
)

// Output is one pin of port A.
type Output struct {
	pf   *PiFace
	pin  uint8
	once sync.Once
}

// SetState drives the pin.
func (o *Output) SetState(on bool) error {
	return o.pf.WriteOutput(o.pin, on)
}

// Close drops this output's reference on the board.
func (o *Output) Close() error {
	var err error
	o.once.Do(func() {
		err = o.pf.release()
	})
	return err
}

func (o *Output) String() string {
	return fmt.Sprintf("%s:%d", o.pf, o.pin)
}
