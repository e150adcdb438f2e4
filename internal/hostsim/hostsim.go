// Package hostsim implements an in-memory host.Host: byte-addressable fake
// memory/IO/PCI-config spaces and a mutex-guarded table registry. Used by
// cmd/amlshell (which loads raw table files from disk in place of a real
// firmware's Scan callback) and by integration tests.
//
// Tables are held in a signature-keyed cache, one contiguous payload
// buffer per table, mirroring how a real RSDT/XSDT lookup is shaped behind
// host.Host's Scan/TablePayload pair.
package hostsim

import (
	"fmt"
	"sync"
	"time"

	"amlvm/host"
	"amlvm/table"

	"golang.org/x/sync/errgroup"
)

// Host is an in-memory host.Host implementation.
type Host struct {
	mu      sync.Mutex
	tables  map[string][]*table.Header
	payload map[*table.Header][]byte

	mem map[uint64][]byte
	io  map[uint16]uint32
	pci map[host.PCIAddress]uint32

	logger host.Logger
	debug  func(interface{})
}

// New creates an empty Host with no registered tables.
func New() *Host {
	return &Host{
		tables:  map[string][]*table.Header{},
		payload: map[*table.Header][]byte{},
		mem:     map[uint64][]byte{},
		io:      map[uint16]uint32{},
		pci:     map[host.PCIAddress]uint32{},
	}
}

// RawTable is one ACPI table file as read from disk: the standard 36-byte
// header followed by its AML payload.
type RawTable struct {
	Signature string
	Raw       []byte
}

// LoadTables parses each of raw's table files concurrently, one goroutine
// per table via golang.org/x/sync/errgroup. If every table parses, it
// registers them all under their signatures in the order given; if any
// table fails, it returns that error and registers none.
func (h *Host) LoadTables(raws []RawTable) error {
	headers := make([]*table.Header, len(raws))
	payloads := make([][]byte, len(raws))

	var g errgroup.Group
	for i, rt := range raws {
		i, rt := i, rt
		g.Go(func() error {
			hdr, body, err := parseTable(rt.Raw)
			if err != nil {
				return fmt.Errorf("hostsim: table %d (%s): %w", i, rt.Signature, err)
			}
			headers[i] = hdr
			payloads[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, hdr := range headers {
		sig := string(hdr.Signature[:])
		h.tables[sig] = append(h.tables[sig], hdr)
		h.payload[hdr] = payloads[i]
	}
	return nil
}

func parseTable(raw []byte) (*table.Header, []byte, error) {
	if len(raw) < table.HeaderSize {
		return nil, nil, fmt.Errorf("truncated table header (%d bytes)", len(raw))
	}
	var hdr table.Header
	copy(hdr.Signature[:], raw[0:4])
	hdr.Length = leUint32(raw[4:8])
	hdr.Revision = raw[8]
	hdr.Checksum = raw[9]
	copy(hdr.OEMID[:], raw[10:16])
	copy(hdr.OEMTableID[:], raw[16:24])
	hdr.OEMRevision = leUint32(raw[24:28])
	hdr.CreatorID = leUint32(raw[28:32])
	hdr.CreatorRevision = leUint32(raw[32:36])
	if int(hdr.Length) > len(raw) || hdr.Length < table.HeaderSize {
		return nil, nil, fmt.Errorf("table length %d inconsistent with %d-byte buffer", hdr.Length, len(raw))
	}
	return &hdr, raw[table.HeaderSize:hdr.Length], nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// Scan implements host.Host.
func (h *Host) Scan(signature string, index int) *table.Header {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.tables[signature]
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

// TablePayload implements host.Host.
func (h *Host) TablePayload(hdr *table.Header) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.payload[hdr]
}

// MapMemory implements host.Host: fakes MMIO as a sparse, byte-addressable
// map keyed by physical base address, allocating a page on first access
// and growing it, contents kept, when a longer range is mapped.
func (h *Host) MapMemory(phys uint64, length uint32) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.mem[phys]
	if !ok || uint32(len(buf)) < length {
		grown := make([]byte, length)
		copy(grown, buf)
		buf = grown
		h.mem[phys] = buf
	}
	return buf, nil
}

// PortReadByte/Word/Dword and PortWriteByte/Word/Dword implement host.Host
// as a flat, zero-initialized port space.
func (h *Host) PortReadByte(port uint16) (uint8, error)   { return uint8(h.portRead(port)), nil }
func (h *Host) PortReadWord(port uint16) (uint16, error)  { return uint16(h.portRead(port)), nil }
func (h *Host) PortReadDword(port uint16) (uint32, error) { return h.portRead(port), nil }

func (h *Host) PortWriteByte(port uint16, val uint8) error   { h.portWrite(port, uint32(val)); return nil }
func (h *Host) PortWriteWord(port uint16, val uint16) error  { h.portWrite(port, uint32(val)); return nil }
func (h *Host) PortWriteDword(port uint16, val uint32) error { h.portWrite(port, val); return nil }

func (h *Host) portRead(port uint16) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.io[port]
}

func (h *Host) portWrite(port uint16, val uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.io[port] = val
}

// PCIReadByte/Word/Dword and PCIWriteByte/Word/Dword implement host.Host as
// a map keyed by the full (seg,bus,slot,func,offset) address.
func (h *Host) PCIReadByte(addr host.PCIAddress) (uint8, error)   { return uint8(h.pciRead(addr)), nil }
func (h *Host) PCIReadWord(addr host.PCIAddress) (uint16, error)  { return uint16(h.pciRead(addr)), nil }
func (h *Host) PCIReadDword(addr host.PCIAddress) (uint32, error) { return h.pciRead(addr), nil }

func (h *Host) PCIWriteByte(addr host.PCIAddress, val uint8) error {
	h.pciWrite(addr, uint32(val))
	return nil
}
func (h *Host) PCIWriteWord(addr host.PCIAddress, val uint16) error {
	h.pciWrite(addr, uint32(val))
	return nil
}
func (h *Host) PCIWriteDword(addr host.PCIAddress, val uint32) error {
	h.pciWrite(addr, val)
	return nil
}

func (h *Host) pciRead(addr host.PCIAddress) uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pci[addr]
}

func (h *Host) pciWrite(addr host.PCIAddress, val uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pci[addr] = val
}

// Sleep implements host.Host by sleeping for real; hostsim targets
// interactive and test use, where real timing is harmless.
func (h *Host) Sleep(ms uint64) { time.Sleep(time.Duration(ms) * time.Millisecond) }

// SetLogger installs the diagnostic sink Logger reports.
func (h *Host) SetLogger(l host.Logger) { h.logger = l }

// Logger implements host.Host.
func (h *Host) Logger() host.Logger { return h.logger }

// SetDebugHandler installs the callback HandleDebug forwards Debug-target
// stores to.
func (h *Host) SetDebugHandler(fn func(interface{})) { h.debug = fn }

// HandleDebug implements host.Host.
func (h *Host) HandleDebug(v interface{}) {
	if h.debug != nil {
		h.debug(v)
	}
}
