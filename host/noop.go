package host

import "errors"

// ErrCallbackMissing is returned by NoopHost methods that an embedder has
// not overridden. The engine turns this into a failure only when AML
// execution actually reaches the missing callback.
var ErrCallbackMissing = errors.New("host: callback not implemented")

// NoopHost implements every *optional* Host callback with
// ErrCallbackMissing. Scan and TablePayload are required and are
// deliberately not provided here: an embedder composes NoopHost and must
// still supply those two, plus whichever optional callbacks its platform
// actually supports.
type NoopHost struct{}

func (NoopHost) MapMemory(uint64, uint32) ([]byte, error) { return nil, ErrCallbackMissing }

func (NoopHost) PortReadByte(uint16) (uint8, error)    { return 0, ErrCallbackMissing }
func (NoopHost) PortReadWord(uint16) (uint16, error)   { return 0, ErrCallbackMissing }
func (NoopHost) PortReadDword(uint16) (uint32, error)  { return 0, ErrCallbackMissing }
func (NoopHost) PortWriteByte(uint16, uint8) error     { return ErrCallbackMissing }
func (NoopHost) PortWriteWord(uint16, uint16) error    { return ErrCallbackMissing }
func (NoopHost) PortWriteDword(uint16, uint32) error   { return ErrCallbackMissing }

func (NoopHost) PCIReadByte(PCIAddress) (uint8, error)   { return 0, ErrCallbackMissing }
func (NoopHost) PCIReadWord(PCIAddress) (uint16, error)  { return 0, ErrCallbackMissing }
func (NoopHost) PCIReadDword(PCIAddress) (uint32, error) { return 0, ErrCallbackMissing }
func (NoopHost) PCIWriteByte(PCIAddress, uint8) error    { return ErrCallbackMissing }
func (NoopHost) PCIWriteWord(PCIAddress, uint16) error   { return ErrCallbackMissing }
func (NoopHost) PCIWriteDword(PCIAddress, uint32) error  { return ErrCallbackMissing }

func (NoopHost) Sleep(uint64) {}

func (NoopHost) Logger() Logger { return nil }

func (NoopHost) HandleDebug(interface{}) {}
