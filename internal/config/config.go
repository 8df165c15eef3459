// Package config loads the nrppactl TOML file over built-in defaults and converts
// the result into the option structs the protocol and driver packages take.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	CriticalityLog    = "log"
	CriticalityReject = "reject"

	CancelDrop   = "drop"
	CancelNotify = "notify"
)

// Config is the resolved process configuration.
type Config struct {
	ListenAddr string
	AdminAddr  string
	// AdminCORSOrigins are allowed browser origins for the admin API.
	AdminCORSOrigins []string
	LogLevel         string
	Codec            CodecConfig
	Driver           DriverConfig
	Frame            FrameConfig
	DUs              []DUConfig
}

type CodecConfig struct {
	// Criticality is "log" or "reject".
	Criticality           string
	SkipUnknownExtensions bool
	SkipUnknownIEs        bool
}

type DriverConfig struct {
	// Cancel is "drop" or "notify".
	Cancel              string
	CollaboratorTimeout time.Duration
}

type FrameConfig struct {
	MaxPayloadBytes   uint32
	MaxHeaderExtBytes uint16
}

// DUConfig describes one DU served by the static collaborator.
type DUConfig struct {
	Index       uint32
	Name        string
	F1Connected bool
	TRPs        []TRPConfig
}

// TRPConfig is the information a DU reports for one TRP. Nil fields are not reported.
type TRPConfig struct {
	ID     uint32
	PCI    *uint16
	ARFCN  *uint32
	PLMN   string
	CellID *uint64
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: "127.0.0.1:9455",
		AdminAddr:  "127.0.0.1:9456",
		LogLevel:   "info",
		Codec: CodecConfig{
			Criticality:           CriticalityLog,
			SkipUnknownExtensions: true,
			SkipUnknownIEs:        false,
		},
		Driver: DriverConfig{
			Cancel:              CancelDrop,
			CollaboratorTimeout: 5 * time.Second,
		},
		Frame: FrameConfig{
			MaxPayloadBytes:   64 * 1024,
			MaxHeaderExtBytes: 256,
		},
	}
}

// SampleConfig is DefaultConfig with a two-TRP DU, used for generated templates.
func SampleConfig() Config {
	pci, arfcn, cell := uint16(1), uint32(632628), uint64(0x000000001)
	cfg := DefaultConfig()
	cfg.AdminCORSOrigins = []string{"http://localhost:3000"}
	cfg.DUs = []DUConfig{{
		Index:       1,
		Name:        "du-1",
		F1Connected: true,
		TRPs: []TRPConfig{
			{ID: 1, PCI: &pci, ARFCN: &arfcn, PLMN: "00f110", CellID: &cell},
			{ID: 2, PCI: &pci},
		},
	}}
	return cfg
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("config missing listen address")
	}
	switch cfg.Codec.Criticality {
	case CriticalityLog, CriticalityReject:
	default:
		return fmt.Errorf("codec criticality must be %q or %q, got %q", CriticalityLog, CriticalityReject, cfg.Codec.Criticality)
	}
	switch cfg.Driver.Cancel {
	case CancelDrop, CancelNotify:
	default:
		return fmt.Errorf("driver cancel must be %q or %q, got %q", CancelDrop, CancelNotify, cfg.Driver.Cancel)
	}
	if cfg.Driver.CollaboratorTimeout < 0 {
		return fmt.Errorf("driver collaborator timeout must not be negative")
	}
	if cfg.Frame.MaxPayloadBytes == 0 {
		return fmt.Errorf("frame max payload must be positive")
	}

	seenDU := make(map[uint32]struct{}, len(cfg.DUs))
	seenTRP := make(map[uint32]uint32)
	for i, du := range cfg.DUs {
		if _, dup := seenDU[du.Index]; dup {
			return fmt.Errorf("du[%d]: duplicate index %d", i, du.Index)
		}
		seenDU[du.Index] = struct{}{}
		for j, trp := range du.TRPs {
			if err := validateTRP(trp); err != nil {
				return fmt.Errorf("du[%d] trp[%d]: %w", i, j, err)
			}
			if owner, dup := seenTRP[trp.ID]; dup {
				return fmt.Errorf("du[%d] trp[%d]: id %d already owned by du %d", i, j, trp.ID, owner)
			}
			seenTRP[trp.ID] = du.Index
		}
	}
	return nil
}

func validateTRP(trp TRPConfig) error {
	if trp.ID < 1 || trp.ID > 65535 {
		return fmt.Errorf("id %d outside 1..65535", trp.ID)
	}
	if trp.PCI != nil && *trp.PCI > 1007 {
		return fmt.Errorf("pci %d outside 0..1007", *trp.PCI)
	}
	if trp.ARFCN != nil && *trp.ARFCN > 3279165 {
		return fmt.Errorf("arfcn %d outside 0..3279165", *trp.ARFCN)
	}
	if (trp.PLMN == "") != (trp.CellID == nil) {
		return fmt.Errorf("plmn and cell_id must be set together")
	}
	if trp.PLMN != "" {
		if _, err := ParsePLMN(trp.PLMN); err != nil {
			return err
		}
		if *trp.CellID >= 1<<36 {
			return fmt.Errorf("cell_id %d exceeds 36 bits", *trp.CellID)
		}
	}
	return nil
}

// ParsePLMN decodes a PLMN identity written as six hex digits.
func ParsePLMN(raw string) ([3]byte, error) {
	var out [3]byte
	b, err := hex.DecodeString(strings.TrimSpace(raw))
	if err != nil || len(b) != len(out) {
		return out, fmt.Errorf("plmn %q must be 3 hex-encoded octets", raw)
	}
	copy(out[:], b)
	return out, nil
}
