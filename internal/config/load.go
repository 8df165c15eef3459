package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Listen   string     `toml:"listen"`
	Admin    string     `toml:"admin"`
	CORS     []string   `toml:"admin_cors_origins,omitempty"`
	LogLevel string     `toml:"log_level"`
	Codec    codecFile  `toml:"codec"`
	Driver   driverFile `toml:"driver"`
	Frame    frameFile  `toml:"frame"`
	DUs      []duFile   `toml:"dus,omitempty"`
}

type codecFile struct {
	Criticality           string `toml:"criticality"`
	SkipUnknownExtensions bool   `toml:"skip_unknown_extensions"`
	SkipUnknownIEs        bool   `toml:"skip_unknown_ies"`
}

type driverFile struct {
	Cancel              string `toml:"cancel"`
	CollaboratorTimeout string `toml:"collaborator_timeout"`
}

type frameFile struct {
	MaxPayloadBytes   uint32 `toml:"max_payload_bytes"`
	MaxHeaderExtBytes uint16 `toml:"max_header_ext_bytes"`
}

type duFile struct {
	Index       uint32    `toml:"index"`
	Name        string    `toml:"name"`
	F1Connected bool      `toml:"f1_connected"`
	TRPs        []trpFile `toml:"trps,omitempty"`
}

type trpFile struct {
	ID     uint32  `toml:"id"`
	PCI    *uint16 `toml:"pci,omitempty"`
	ARFCN  *uint32 `toml:"arfcn,omitempty"`
	PLMN   string  `toml:"plmn,omitempty"`
	CellID *uint64 `toml:"cell_id,omitempty"`
}

// Load overlays the keys defined in the file at path onto DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("listen") {
		cfg.ListenAddr = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("admin") {
		cfg.AdminAddr = strings.TrimSpace(raw.Admin)
	}
	if meta.IsDefined("admin_cors_origins") {
		cfg.AdminCORSOrigins = normalizeOrigins(raw.CORS)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	if meta.IsDefined("codec", "criticality") {
		cfg.Codec.Criticality = strings.ToLower(strings.TrimSpace(raw.Codec.Criticality))
	}
	if meta.IsDefined("codec", "skip_unknown_extensions") {
		cfg.Codec.SkipUnknownExtensions = raw.Codec.SkipUnknownExtensions
	}
	if meta.IsDefined("codec", "skip_unknown_ies") {
		cfg.Codec.SkipUnknownIEs = raw.Codec.SkipUnknownIEs
	}

	if meta.IsDefined("driver", "cancel") {
		cfg.Driver.Cancel = strings.ToLower(strings.TrimSpace(raw.Driver.Cancel))
	}
	if meta.IsDefined("driver", "collaborator_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Driver.CollaboratorTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse driver.collaborator_timeout: %w", err)
		}
		cfg.Driver.CollaboratorTimeout = d
	}

	if meta.IsDefined("frame", "max_payload_bytes") {
		cfg.Frame.MaxPayloadBytes = raw.Frame.MaxPayloadBytes
	}
	if meta.IsDefined("frame", "max_header_ext_bytes") {
		cfg.Frame.MaxHeaderExtBytes = raw.Frame.MaxHeaderExtBytes
	}

	if meta.IsDefined("dus") {
		cfg.DUs = make([]DUConfig, 0, len(raw.DUs))
		for _, du := range raw.DUs {
			cfg.DUs = append(cfg.DUs, du.config())
		}
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (d duFile) config() DUConfig {
	out := DUConfig{
		Index:       d.Index,
		Name:        strings.TrimSpace(d.Name),
		F1Connected: d.F1Connected,
		TRPs:        make([]TRPConfig, 0, len(d.TRPs)),
	}
	if out.Name == "" {
		out.Name = fmt.Sprintf("du-%d", d.Index)
	}
	for _, t := range d.TRPs {
		out.TRPs = append(out.TRPs, TRPConfig{ID: t.ID, PCI: t.PCI, ARFCN: t.ARFCN, PLMN: strings.TrimSpace(t.PLMN), CellID: t.CellID})
	}
	return out
}

func fileFrom(cfg Config) fileConfig {
	out := fileConfig{
		Listen:   cfg.ListenAddr,
		Admin:    cfg.AdminAddr,
		CORS:     cfg.AdminCORSOrigins,
		LogLevel: cfg.LogLevel,
		Codec: codecFile{
			Criticality:           cfg.Codec.Criticality,
			SkipUnknownExtensions: cfg.Codec.SkipUnknownExtensions,
			SkipUnknownIEs:        cfg.Codec.SkipUnknownIEs,
		},
		Driver: driverFile{
			Cancel:              cfg.Driver.Cancel,
			CollaboratorTimeout: cfg.Driver.CollaboratorTimeout.String(),
		},
		Frame: frameFile{
			MaxPayloadBytes:   cfg.Frame.MaxPayloadBytes,
			MaxHeaderExtBytes: cfg.Frame.MaxHeaderExtBytes,
		},
	}
	for _, du := range cfg.DUs {
		df := duFile{Index: du.Index, Name: du.Name, F1Connected: du.F1Connected}
		for _, t := range du.TRPs {
			df.TRPs = append(df.TRPs, trpFile{ID: t.ID, PCI: t.PCI, ARFCN: t.ARFCN, PLMN: t.PLMN, CellID: t.CellID})
		}
		out.DUs = append(out.DUs, df)
	}
	return out
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		if v := strings.TrimSpace(origin); v != "" {
			out = append(out, v)
		}
	}
	return out
}
