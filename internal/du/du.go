// Package du is a static stand-in for the F1 side of the CU-CP. It answers TRP
// information queries from a configured DU table.
package du

import (
	"context"
	"fmt"
	"sort"

	"github.com/danmuck/nrppa/internal/config"
	"github.com/danmuck/nrppa/internal/nrppa"
	"github.com/danmuck/nrppa/internal/protocol/messages"
	"github.com/rs/zerolog"
)

// Handle is the F1 notifier for one connected DU.
type Handle struct {
	Index nrppa.DUIndex
	name  string
}

func (h *Handle) Name() string {
	return h.name
}

type trp struct {
	id   messages.TRPID
	info map[messages.TRPInformationTypeItem]messages.TRPInformationTypeResponseItem
}

type unit struct {
	index  nrppa.DUIndex
	handle *Handle
	trps   []trp
}

// Static answers collaborator queries from a fixed DU table.
type Static struct {
	units  []unit
	logger zerolog.Logger
}

// NewStatic builds a collaborator from the configured DUs. A DU without an F1
// connection answers without a notifier.
func NewStatic(dus []config.DUConfig, logger zerolog.Logger) (*Static, error) {
	s := &Static{logger: logger.With().Str("component", "du").Logger()}
	for _, d := range dus {
		u := unit{index: nrppa.DUIndex(d.Index)}
		if d.F1Connected {
			u.handle = &Handle{Index: u.index, name: d.Name}
		}
		for _, tc := range d.TRPs {
			t, err := buildTRP(tc)
			if err != nil {
				return nil, fmt.Errorf("du %d: %w", d.Index, err)
			}
			u.trps = append(u.trps, t)
		}
		s.units = append(s.units, u)
	}
	sort.Slice(s.units, func(i, j int) bool { return s.units[i].index < s.units[j].index })
	return s, nil
}

func buildTRP(tc config.TRPConfig) (trp, error) {
	t := trp{
		id:   messages.TRPID(tc.ID),
		info: make(map[messages.TRPInformationTypeItem]messages.TRPInformationTypeResponseItem),
	}
	if tc.PCI != nil {
		t.info[messages.InfoNRPCI] = messages.PCIItem(messages.NRPCI(*tc.PCI))
	}
	if tc.ARFCN != nil {
		t.info[messages.InfoARFCN] = messages.ARFCNItem(messages.NRARFCN(*tc.ARFCN))
	}
	if tc.PLMN != "" && tc.CellID != nil {
		plmn, err := config.ParsePLMN(tc.PLMN)
		if err != nil {
			return trp{}, err
		}
		t.info[messages.InfoNGRANCGI] = messages.CGIItem(messages.NRCGI{PLMN: plmn, CellID: *tc.CellID})
	}
	return t, nil
}

// RequestTRPInformation returns, per DU, the requested TRPs that DU owns. An empty
// TRP list selects every TRP. TRPs reporting none of the requested types are left
// out, as are DUs left with no TRPs.
func (s *Static) RequestTRPInformation(ctx context.Context, q nrppa.TRPQuery) (nrppa.Aggregate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[messages.TRPID]struct{}, len(q.TRPs))
	for _, id := range q.TRPs {
		want[id] = struct{}{}
	}

	var agg nrppa.Aggregate
	for _, u := range s.units {
		var items []messages.TRPInformation
		for _, t := range u.trps {
			if len(want) > 0 {
				if _, ok := want[t.id]; !ok {
					continue
				}
			}
			info := t.project(q.Types)
			if len(info.Items) == 0 {
				continue
			}
			items = append(items, info)
		}
		if len(items) == 0 {
			continue
		}
		src := nrppa.SourceResult{DU: u.index, Items: items}
		if u.handle != nil {
			src.Notifier = u.handle
		}
		agg = append(agg, src)
	}
	s.logger.Debug().Int("sources", len(agg)).Int("trps", agg.ItemCount()).Msg("trp query answered")
	return agg, nil
}

// project keeps the requested information types this TRP can report, in request order.
func (t trp) project(types []messages.TRPInformationTypeItem) messages.TRPInformation {
	out := messages.TRPInformation{ID: t.id}
	for _, typ := range types {
		if item, ok := t.info[typ]; ok {
			out.Items = append(out.Items, item)
		}
	}
	return out
}
