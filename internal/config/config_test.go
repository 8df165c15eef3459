package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/nrppa/internal/nrppa"
	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/danmuck/nrppa/internal/protocol/messages"
	"github.com/danmuck/nrppa/internal/protocol/pdu"
	"github.com/danmuck/nrppa/internal/protocol/procedure"
	"github.com/danmuck/nrppa/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nrppa.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, `
listen = "0.0.0.0:7000"

[codec]
criticality = "reject"

[driver]
cancel = "notify"
collaborator_timeout = "250ms"

[[dus]]
index = 3
f1_connected = true

[[dus.trps]]
id = 9
pci = 17
plmn = "00f110"
cell_id = 66
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := DefaultConfig()
	require.Equal(t, "0.0.0.0:7000", cfg.ListenAddr)
	require.Equal(t, def.AdminAddr, cfg.AdminAddr)
	require.Equal(t, CriticalityReject, cfg.Codec.Criticality)
	require.True(t, cfg.Codec.SkipUnknownExtensions, "undefined keys keep defaults")
	require.Equal(t, 250*time.Millisecond, cfg.Driver.CollaboratorTimeout)
	require.Equal(t, def.Frame, cfg.Frame)

	require.Len(t, cfg.DUs, 1)
	du := cfg.DUs[0]
	require.Equal(t, "du-3", du.Name)
	require.True(t, du.F1Connected)
	require.Len(t, du.TRPs, 1)
	require.Equal(t, uint16(17), *du.TRPs[0].PCI)
	require.Nil(t, du.TRPs[0].ARFCN)
	require.Equal(t, uint64(66), *du.TRPs[0].CellID)

	require.Equal(t, pdu.CriticalityReject, cfg.PDUOptions().Criticality)
	require.Equal(t, nrppa.CancelNotify, cfg.DriverOptions().Cancel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"criticality": "[codec]\ncriticality = \"panic\"\n",
		"cancel":      "[driver]\ncancel = \"retry\"\n",
		"timeout":     "[driver]\ncollaborator_timeout = \"soon\"\n",
		"unknown key": "listen_addr = \"x\"\n",
		"trp range":   "[[dus]]\nindex = 1\n[[dus.trps]]\nid = 0\n",
		"pci range":   "[[dus]]\nindex = 1\n[[dus.trps]]\nid = 1\npci = 2000\n",
		"cgi pair":    "[[dus]]\nindex = 1\n[[dus.trps]]\nid = 1\nplmn = \"00f110\"\n",
		"dup trp":     "[[dus]]\nindex = 1\n[[dus.trps]]\nid = 1\n[[dus]]\nindex = 2\n[[dus.trps]]\nid = 1\n",
		"dup du":      "[[dus]]\nindex = 1\n[[dus]]\nindex = 1\n",
	}
	for name, body := range cases {
		_, err := Load(writeFile(t, body))
		require.Error(t, err, name)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	testlog.Start(t)
	want := SampleConfig()
	data, err := Render(want)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "collaborator_timeout"))

	got, err := Load(writeFile(t, string(data)))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "nrppa.toml")
	require.NoError(t, WriteTemplate(path, false))
	require.Error(t, WriteTemplate(path, false))
	require.NoError(t, WriteTemplate(path, true))

	_, err := Load(path)
	require.NoError(t, err)
}

func TestParsePLMN(t *testing.T) {
	testlog.Start(t)
	plmn, err := ParsePLMN("00F110")
	require.NoError(t, err)
	require.Equal(t, [3]byte{0x00, 0xf1, 0x10}, plmn)

	_, err = ParsePLMN("00f1")
	require.Error(t, err)
}

// requestWithUndeclaredIE encodes a TRP request that also carries id 999 with criticality ignore.
func requestWithUndeclaredIE(t *testing.T) []byte {
	t.Helper()
	wide := ie.NewMessage(ie.NewSchema("WideTRPInformationRequest",
		ie.Spec{ID: messages.IDTRPInformationTypeListTRPReq, Name: "TRPInformationTypeListTRPReq", Criticality: ie.Reject,
			Presence: ie.Mandatory, New: func() aper.Value { return &messages.TRPInformationTypeList{} }},
		ie.Spec{ID: 999, Name: "Undeclared", Criticality: ie.Ignore, Presence: ie.Optional,
			New: func() aper.Value { return &aper.Open{} }},
	))
	wide.MustSet(messages.IDTRPInformationTypeListTRPReq, messages.NewTRPInformationTypeList(messages.InfoNRPCI))
	wide.MustSet(999, &aper.Open{Raw: []byte{0x2a}})

	codec := pdu.NewCodec(messages.MustRegistry(), pdu.Options{}, log.Logger)
	env, err := codec.NewEnvelope(procedure.InitiatingMessage, procedure.TRPInformationExchange, 3, wide)
	require.NoError(t, err)
	raw, err := codec.Encode(env)
	require.NoError(t, err)
	return raw
}

func TestDefaultCodecRejectsUnknownIE(t *testing.T) {
	testlog.Start(t)
	raw := requestWithUndeclaredIE(t)

	cfg := DefaultConfig()
	require.False(t, cfg.Codec.SkipUnknownIEs)
	_, err := pdu.NewCodec(messages.MustRegistry(), cfg.PDUOptions(), log.Logger).Decode(raw)
	var unknown *ie.UnknownIDError
	require.True(t, errors.As(err, &unknown), "got %v", err)
	require.Equal(t, uint16(999), unknown.ID)

	path := writeFile(t, "[codec]\nskip_unknown_ies = true\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	env, err := pdu.NewCodec(messages.MustRegistry(), cfg.PDUOptions(), log.Logger).Decode(raw)
	require.NoError(t, err)
	req, ok := env.Value.(*messages.TRPInformationRequest)
	require.True(t, ok)
	_, ok = req.InformationTypes()
	require.True(t, ok)
}
