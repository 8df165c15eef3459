package config

import (
	"github.com/danmuck/nrppa/internal/nrppa"
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/frame"
	"github.com/danmuck/nrppa/internal/protocol/pdu"
)

func (c Config) PDUOptions() pdu.Options {
	opts := pdu.Options{
		Decode: aper.DecodeOptions{
			SkipUnknownExtensions: c.Codec.SkipUnknownExtensions,
			SkipUnknownIEs:        c.Codec.SkipUnknownIEs,
		},
	}
	if c.Codec.Criticality == CriticalityReject {
		opts.Criticality = pdu.CriticalityReject
	}
	return opts
}

func (c Config) DriverOptions() nrppa.DriverConfig {
	out := nrppa.DriverConfig{CollaboratorTimeout: c.Driver.CollaboratorTimeout}
	if c.Driver.Cancel == CancelNotify {
		out.Cancel = nrppa.CancelNotify
	}
	return out
}

func (c Config) FrameLimits() frame.Limits {
	return frame.Limits{
		MaxHeaderExtBytes: c.Frame.MaxHeaderExtBytes,
		MaxPayloadBytes:   c.Frame.MaxPayloadBytes,
	}
}
