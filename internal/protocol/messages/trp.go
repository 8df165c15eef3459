package messages

import (
	"fmt"

	"github.com/danmuck/nrppa/internal/protocol/aper"
	"github.com/danmuck/nrppa/internal/protocol/choice"
	"github.com/danmuck/nrppa/internal/protocol/ie"
	"github.com/rs/zerolog"
)

// TRPID is TRP-ID ::= INTEGER (1..maxnoTRPs, ...).
type TRPID uint32

var trpIDConstraint = aper.Range(1, maxnoTRPs).Extended()

func (t *TRPID) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(int64(*t), trpIDConstraint)
}

func (t *TRPID) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadInteger(trpIDConstraint)
	if err != nil {
		return err
	}
	if v < 0 || v > int64(^uint32(0)) {
		return &aper.RangeError{Value: v, Constraint: trpIDConstraint}
	}
	*t = TRPID(v)
	return nil
}

func extensionField(c *ie.OpenContainer) ie.Field {
	return ie.Field{Name: "iE-Extensions", Optional: true, Present: c != nil, Value: c}
}

// TRPItem is one requested TRP.
type TRPItem struct {
	ID           TRPID
	IEExtensions *ie.OpenContainer
	Extensions   ie.Extensions
}

func (t *TRPItem) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeSequence(w, true, []ie.Field{
		{Name: "tRP-ID", Value: &t.ID},
		extensionField(t.IEExtensions),
	}, t.Extensions)
}

func (t *TRPItem) DecodeAPER(r *aper.Reader) error {
	var ext ie.OpenContainer
	fields := []ie.Field{
		{Name: "tRP-ID", Value: &t.ID},
		{Name: "iE-Extensions", Optional: true, Value: &ext},
	}
	x, err := ie.DecodeSequence(r, true, fields)
	if err != nil {
		return err
	}
	if fields[1].Present {
		t.IEExtensions = &ext
	}
	t.Extensions = x
	return nil
}

// TRPList is SEQUENCE (SIZE(1..maxnoTRPs)) OF TRPItem.
type TRPList struct {
	Items []TRPItem
}

// NewTRPList builds a list from ids.
func NewTRPList(ids ...TRPID) *TRPList {
	l := &TRPList{Items: make([]TRPItem, len(ids))}
	for i, id := range ids {
		l.Items[i].ID = id
	}
	return l
}

// IDs returns the requested TRP ids in order.
func (l *TRPList) IDs() []TRPID {
	out := make([]TRPID, len(l.Items))
	for i, item := range l.Items {
		out[i] = item.ID
	}
	return out
}

func (l *TRPList) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeList(w, l.Items, 1, maxnoTRPs)
}

func (l *TRPList) DecodeAPER(r *aper.Reader) (err error) {
	l.Items, err = ie.DecodeList[TRPItem](r, 1, maxnoTRPs)
	return err
}

func (l *TRPList) MarshalZerologArray(a *zerolog.Array) {
	for _, item := range l.Items {
		a.Uint32(uint32(item.ID))
	}
}

func (l *TRPList) MarshalZerologObject(e *zerolog.Event) {
	e.Array("trps", l)
}

// TRPInformationTypeItem names one kind of TRP information a requester wants.
type TRPInformationTypeItem int

const (
	InfoNRPCI TRPInformationTypeItem = iota
	InfoNGRANCGI
	InfoARFCN
	InfoPRSConfig
	InfoSSBInfo
	InfoSFNInitTime
	InfoSpatialDirectInfo
	InfoGeoCoord
	InfoTRPType
	InfoOnDemandPRSInfo
	InfoTRPTxTEG
	InfoBeamAntennaInfo
)

const trpInfoTypeRoot = 8

var trpInfoTypeNames = []string{
	"nrPCI", "nG-RAN-CGI", "arfcn", "pRSConfig", "sSBInfo", "sFNInitTime", "spatialDirectInfo", "geoCoord",
	"trp-type", "ondemandPRSInfo", "trpTxTeg", "beam-antenna-info",
}

func (t TRPInformationTypeItem) String() string {
	if int(t) >= 0 && int(t) < len(trpInfoTypeNames) {
		return trpInfoTypeNames[t]
	}
	return fmt.Sprintf("trp-information-type(%d)", int(t))
}

func (t *TRPInformationTypeItem) EncodeAPER(w *aper.Writer) error {
	return w.WriteEnumerated(int(*t), trpInfoTypeRoot, true)
}

func (t *TRPInformationTypeItem) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadEnumerated(trpInfoTypeRoot, true)
	*t = TRPInformationTypeItem(v)
	return err
}

// TRPInformationTypeList is SEQUENCE (SIZE(1..maxnoTRPInfoTypes)) OF
// ProtocolIE-SingleContainer carrying TRPInformationTypeItem.
type TRPInformationTypeList struct {
	Items []TRPInformationTypeItem
}

func NewTRPInformationTypeList(items ...TRPInformationTypeItem) *TRPInformationTypeList {
	return &TRPInformationTypeList{Items: items}
}

func (l *TRPInformationTypeList) EncodeAPER(w *aper.Writer) error {
	if err := w.WriteLength(len(l.Items), 1, maxnoTRPInfoTypes); err != nil {
		return err
	}
	for i := range l.Items {
		single, err := ie.NewSingleContainer(IDTRPInformationTypeItem, ie.Reject, &l.Items[i])
		if err != nil {
			return err
		}
		if err := single.EncodeAPER(w); err != nil {
			return err
		}
	}
	return nil
}

func (l *TRPInformationTypeList) DecodeAPER(r *aper.Reader) error {
	n, err := r.ReadLength(1, maxnoTRPInfoTypes)
	if err != nil {
		return err
	}
	l.Items = make([]TRPInformationTypeItem, n)
	for i := range l.Items {
		single := ie.OpenContainer{Lower: 1, Upper: 1}
		if err := single.DecodeAPER(r); err != nil {
			return err
		}
		entry := single.Entries[0]
		if entry.ID != IDTRPInformationTypeItem {
			return &ie.UnknownIDError{Schema: "TRPInformationTypeItemTRPReq", ID: entry.ID, Criticality: entry.Criticality}
		}
		if err := aper.Unmarshal(entry.Value, &l.Items[i], r.Options()); err != nil {
			return err
		}
	}
	return nil
}

func (l *TRPInformationTypeList) MarshalZerologObject(e *zerolog.Event) {
	names := make([]string, len(l.Items))
	for i, item := range l.Items {
		names[i] = item.String()
	}
	e.Strs("types", names)
}

// NRPCI is NR-PCI ::= INTEGER (0..1007).
type NRPCI uint16

func (p *NRPCI) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(int64(*p), aper.Range(0, 1007))
}

func (p *NRPCI) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadInteger(aper.Range(0, 1007))
	*p = NRPCI(v)
	return err
}

// NRARFCN is INTEGER (0..3279165).
type NRARFCN uint32

func (a *NRARFCN) EncodeAPER(w *aper.Writer) error {
	return w.WriteInteger(int64(*a), aper.Range(0, 3279165))
}

func (a *NRARFCN) DecodeAPER(r *aper.Reader) error {
	v, err := r.ReadInteger(aper.Range(0, 3279165))
	*a = NRARFCN(v)
	return err
}

// NRCGI is CGI-NR: a PLMN identity and a 36-bit NR cell identity.
type NRCGI struct {
	PLMN         [3]byte
	CellID       uint64
	IEExtensions *ie.OpenContainer
	Extensions   ie.Extensions
}

type plmnIdentity struct{ p *[3]byte }

func (v plmnIdentity) EncodeAPER(w *aper.Writer) error {
	return w.WriteOctetString(v.p[:], 3, 3, false)
}

func (v plmnIdentity) DecodeAPER(r *aper.Reader) error {
	b, err := r.ReadOctetString(3, 3, false)
	if err != nil {
		return err
	}
	copy(v.p[:], b)
	return nil
}

type nrCellIdentity struct{ id *uint64 }

func (v nrCellIdentity) EncodeAPER(w *aper.Writer) error {
	if *v.id >= 1<<36 {
		return &aper.RangeError{Value: int64(*v.id), Constraint: aper.Range(0, 1<<36-1)}
	}
	shifted := *v.id << 4
	b := make([]byte, 5)
	for i := range b {
		b[i] = byte(shifted >> uint(32-8*i))
	}
	return w.WriteBitString(aper.BitString{Bytes: b, BitLength: 36}, 36, 36, false)
}

func (v nrCellIdentity) DecodeAPER(r *aper.Reader) error {
	bs, err := r.ReadBitString(36, 36, false)
	if err != nil {
		return err
	}
	var shifted uint64
	for _, b := range bs.Bytes {
		shifted = shifted<<8 | uint64(b)
	}
	*v.id = shifted >> 4
	return nil
}

func (c *NRCGI) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeSequence(w, true, []ie.Field{
		{Name: "pLMN-Identity", Value: plmnIdentity{&c.PLMN}},
		{Name: "nRcellIdentifier", Value: nrCellIdentity{&c.CellID}},
		extensionField(c.IEExtensions),
	}, c.Extensions)
}

func (c *NRCGI) DecodeAPER(r *aper.Reader) error {
	var ext ie.OpenContainer
	fields := []ie.Field{
		{Name: "pLMN-Identity", Value: plmnIdentity{&c.PLMN}},
		{Name: "nRcellIdentifier", Value: nrCellIdentity{&c.CellID}},
		{Name: "iE-Extensions", Optional: true, Value: &ext},
	}
	x, err := ie.DecodeSequence(r, true, fields)
	if err != nil {
		return err
	}
	if fields[2].Present {
		c.IEExtensions = &ext
	}
	c.Extensions = x
	return nil
}

func (c *NRCGI) MarshalZerologObject(e *zerolog.Event) {
	e.Hex("plmn", c.PLMN[:]).Uint64("nr_cell_id", c.CellID)
}

// TRPInformationTypeResponseItem alternatives.
const (
	ResponsePCINR = iota
	ResponseNGRANCGI
	ResponseNRARFCN
	ResponsePRSConfiguration
	ResponseSSBInformation
	ResponseSFNInitialisationTime
	ResponseSpatialDirectionInformation
	ResponseGeographicalCoordinates
	ResponseChoiceExtension
)

var trpInfoResponseSpec = &choice.Spec{
	Name: "TRPInformationTypeResponseItem",
	Root: []choice.Alternative{
		{Name: "pCI-NR", New: func() aper.Value { return new(NRPCI) }},
		{Name: "nG-RAN-CGI", New: func() aper.Value { return &NRCGI{} }},
		{Name: "nRARFCN", New: func() aper.Value { return new(NRARFCN) }},
		{Name: "pRSConfiguration"},
		{Name: "sSBinformation"},
		{Name: "sFNInitialisationTime"},
		{Name: "spatialDirectionInformation"},
		{Name: "geographicalCoordinates"},
		{Name: "choice-extension", New: func() aper.Value { return &ie.OpenContainer{Lower: 1, Upper: 1} }},
	},
}

// TRPInformationTypeResponseItem is one piece of information about a TRP.
type TRPInformationTypeResponseItem struct {
	*choice.Choice
}

func PCIItem(pci NRPCI) TRPInformationTypeResponseItem {
	c := choice.New(trpInfoResponseSpec)
	_ = c.SetValue(ResponsePCINR, &pci)
	return TRPInformationTypeResponseItem{c}
}

func CGIItem(cgi NRCGI) TRPInformationTypeResponseItem {
	c := choice.New(trpInfoResponseSpec)
	_ = c.SetValue(ResponseNGRANCGI, &cgi)
	return TRPInformationTypeResponseItem{c}
}

func ARFCNItem(arfcn NRARFCN) TRPInformationTypeResponseItem {
	c := choice.New(trpInfoResponseSpec)
	_ = c.SetValue(ResponseNRARFCN, &arfcn)
	return TRPInformationTypeResponseItem{c}
}

func (t *TRPInformationTypeResponseItem) EncodeAPER(w *aper.Writer) error {
	if t.Choice == nil {
		return fmt.Errorf("%w: %s", choice.ErrUnset, trpInfoResponseSpec.Name)
	}
	return t.Choice.EncodeAPER(w)
}

func (t *TRPInformationTypeResponseItem) DecodeAPER(r *aper.Reader) error {
	t.Choice = choice.New(trpInfoResponseSpec)
	return t.Choice.DecodeAPER(r)
}

func (t *TRPInformationTypeResponseItem) MarshalZerologObject(e *zerolog.Event) {
	if t.Choice != nil {
		t.Choice.MarshalZerologObject(e)
	}
}

// TRPInformation is the information reported for one TRP.
type TRPInformation struct {
	ID           TRPID
	Items        []TRPInformationTypeResponseItem
	IEExtensions *ie.OpenContainer
	Extensions   ie.Extensions
}

type responseItems struct {
	items *[]TRPInformationTypeResponseItem
}

func (v responseItems) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeList(w, *v.items, 1, maxnoTRPInfoTypes)
}

func (v responseItems) DecodeAPER(r *aper.Reader) (err error) {
	*v.items, err = ie.DecodeList[TRPInformationTypeResponseItem](r, 1, maxnoTRPInfoTypes)
	return err
}

func (t *TRPInformation) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeSequence(w, true, []ie.Field{
		{Name: "tRP-ID", Value: &t.ID},
		{Name: "tRPInformationTypeResponseList", Value: responseItems{&t.Items}},
		extensionField(t.IEExtensions),
	}, t.Extensions)
}

func (t *TRPInformation) DecodeAPER(r *aper.Reader) error {
	var ext ie.OpenContainer
	fields := []ie.Field{
		{Name: "tRP-ID", Value: &t.ID},
		{Name: "tRPInformationTypeResponseList", Value: responseItems{&t.Items}},
		{Name: "iE-Extensions", Optional: true, Value: &ext},
	}
	x, err := ie.DecodeSequence(r, true, fields)
	if err != nil {
		return err
	}
	if fields[2].Present {
		t.IEExtensions = &ext
	}
	t.Extensions = x
	return nil
}

func (t *TRPInformation) MarshalZerologObject(e *zerolog.Event) {
	e.Uint32("trp_id", uint32(t.ID))
	arr := zerolog.Arr()
	for i := range t.Items {
		arr.Object(&t.Items[i])
	}
	e.Array("items", arr)
}

// TRPInformationItem is one element of TRPInformationListTRPResp.
type TRPInformationItem struct {
	Information  TRPInformation
	IEExtensions *ie.OpenContainer
	Extensions   ie.Extensions
}

func (t *TRPInformationItem) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeSequence(w, true, []ie.Field{
		{Name: "tRPInformation", Value: &t.Information},
		extensionField(t.IEExtensions),
	}, t.Extensions)
}

func (t *TRPInformationItem) DecodeAPER(r *aper.Reader) error {
	var ext ie.OpenContainer
	fields := []ie.Field{
		{Name: "tRPInformation", Value: &t.Information},
		{Name: "iE-Extensions", Optional: true, Value: &ext},
	}
	x, err := ie.DecodeSequence(r, true, fields)
	if err != nil {
		return err
	}
	if fields[1].Present {
		t.IEExtensions = &ext
	}
	t.Extensions = x
	return nil
}

// TRPInformationList is TRPInformationListTRPResp.
type TRPInformationList struct {
	Items []TRPInformationItem
}

// NewTRPInformationList wraps infos as response list items.
func NewTRPInformationList(infos ...TRPInformation) *TRPInformationList {
	l := &TRPInformationList{Items: make([]TRPInformationItem, len(infos))}
	for i, info := range infos {
		l.Items[i].Information = info
	}
	return l
}

func (l *TRPInformationList) EncodeAPER(w *aper.Writer) error {
	return ie.EncodeList(w, l.Items, 1, maxnoTRPs)
}

func (l *TRPInformationList) DecodeAPER(r *aper.Reader) (err error) {
	l.Items, err = ie.DecodeList[TRPInformationItem](r, 1, maxnoTRPs)
	return err
}

func (l *TRPInformationList) MarshalZerologArray(a *zerolog.Array) {
	for i := range l.Items {
		a.Object(&l.Items[i].Information)
	}
}

func (l *TRPInformationList) MarshalZerologObject(e *zerolog.Event) {
	e.Array("trps", l)
}
