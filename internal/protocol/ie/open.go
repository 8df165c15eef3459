package ie

import (
	"encoding/hex"
	"strconv"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/rs/zerolog"
)

// OpenEntry is one field of an OpenContainer kept as its raw open type span.
type OpenEntry struct {
	ID          uint16
	Criticality Criticality
	Value       []byte
}

// OpenContainer is an id-keyed container whose values are not interpreted. It carries
// ProtocolExtensionContainer and ProtocolIE-SingleContainer payloads.
// The zero value is bounded SIZE(1..65535).
type OpenContainer struct {
	Lower   int
	Upper   int
	Entries []OpenEntry
}

// NewSingleContainer returns a container holding exactly one field. It writes no count.
func NewSingleContainer(id uint16, crit Criticality, v aper.Value) (*OpenContainer, error) {
	raw, err := aper.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &OpenContainer{Lower: 1, Upper: 1, Entries: []OpenEntry{{ID: id, Criticality: crit, Value: raw}}}, nil
}

func (c *OpenContainer) bounds() (int, int) {
	if c.Lower == 0 && c.Upper == 0 {
		return 1, maxProtocolExtensions
	}
	return c.Lower, c.Upper
}

// Lookup returns the raw value under id.
func (c *OpenContainer) Lookup(id uint16) ([]byte, bool) {
	for _, e := range c.Entries {
		if e.ID == id {
			return e.Value, true
		}
	}
	return nil, false
}

func (c *OpenContainer) EncodeAPER(w *aper.Writer) error {
	lo, hi := c.bounds()
	if err := w.WriteLength(len(c.Entries), lo, hi); err != nil {
		return err
	}
	for _, e := range c.Entries {
		if err := writeID(w, e.ID); err != nil {
			return err
		}
		crit := e.Criticality
		if err := crit.EncodeAPER(w); err != nil {
			return err
		}
		if err := w.WriteOpenOctets(e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (c *OpenContainer) DecodeAPER(r *aper.Reader) error {
	lo, hi := c.bounds()
	n, err := r.ReadLength(lo, hi)
	if err != nil {
		return err
	}
	c.Entries = make([]OpenEntry, 0, n)
	for i := 0; i < n; i++ {
		id, err := readID(r)
		if err != nil {
			return err
		}
		var crit Criticality
		if err := crit.DecodeAPER(r); err != nil {
			return err
		}
		raw, err := r.ReadOpenType()
		if err != nil {
			return err
		}
		c.Entries = append(c.Entries, OpenEntry{ID: id, Criticality: crit, Value: raw})
	}
	return nil
}

func (c *OpenContainer) MarshalZerologObject(e *zerolog.Event) {
	for _, entry := range c.Entries {
		e.Str("id-"+strconv.Itoa(int(entry.ID)), hex.EncodeToString(entry.Value))
	}
}
