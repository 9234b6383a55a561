package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ErrCorruptRecord is returned when encoded bytes cannot hold the declared fields.
var ErrCorruptRecord = errors.New("corrupt record")

// Serializers for persisted entities, in the MUS format.
var (
	IDMUS              = idMUS{}
	DatasetMUS         = recordMUS[Dataset, *Dataset]{}
	DocumentMUS        = recordMUS[Document, *Document]{}
	SegmentMUS         = recordMUS[Segment, *Segment]{}
	QueryLogEntryMUS   = recordMUS[QueryLogEntry, *QueryLogEntry]{}
	RetrievalConfigMUS = recordMUS[RetrievalConfig, *RetrievalConfig]{}
)

// codec visits every field of a record. The sizer, encoder and decoder
// implementations share one field order per type, defined by the visit methods below.
type codec interface {
	uint64(v *uint64)
	int(v *int)
	str(v *string)
	boolean(v *bool)
	float32(v *float32)
	time(v *time.Time)
	vector(v *[]float32)
}

type visitable[T any] interface {
	*T
	visit(c codec)
}

type recordMUS[T any, P visitable[T]] struct{}

// Marshal encodes v into bs, which must be at least Size(v) long.
func (recordMUS[T, P]) Marshal(v T, bs []byte) (n int) {
	e := &encoder{bs: bs}
	P(&v).visit(e)
	return e.n
}

// Unmarshal decodes a record from bs.
func (recordMUS[T, P]) Unmarshal(bs []byte) (v T, n int, err error) {
	d := &decoder{bs: bs}
	P(&v).visit(d)
	return v, d.n, d.err
}

// Size returns the encoded length of v.
func (recordMUS[T, P]) Size(v T) (size int) {
	s := &sizer{}
	P(&v).visit(s)
	return s.n
}

// Skip returns the encoded length of the record at the start of bs.
func (m recordMUS[T, P]) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (m idMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

func (v *ModelRef) visit(c codec) {
	c.str(&v.Provider)
	c.str(&v.Model)
}

func (v *RetrievalConfig) visit(c codec) {
	c.str((*string)(&v.SearchMethod))
	c.boolean(&v.RerankingEnabled)
	optional(c, &v.RerankingModel, func(m *ModelRef) { m.visit(c) })
	c.int(&v.TopK)
	c.boolean(&v.ScoreThresholdEnabled)
	optional(c, &v.ScoreThreshold, func(f *float32) { c.float32(f) })
}

func (v *Dataset) visit(c codec) {
	c.uint64((*uint64)(&v.Id))
	c.str(&v.TenantID)
	c.str(&v.Name)
	c.str((*string)(&v.IndexingTechnique))
	c.str(&v.EmbeddingProvider)
	c.str(&v.EmbeddingModel)
	optional(c, &v.RetrievalConfig, func(r *RetrievalConfig) { r.visit(c) })
	c.time(&v.InsertedAt)
	c.time(&v.UpdatedAt)
}

func (v *Document) visit(c codec) {
	c.uint64((*uint64)(&v.Id))
	c.uint64((*uint64)(&v.DatasetID))
	c.str(&v.Name)
	c.boolean(&v.Enabled)
	c.boolean(&v.Archived)
	c.str((*string)(&v.IndexingStatus))
	c.str(&v.Error)
	c.time(&v.InsertedAt)
	c.time(&v.UpdatedAt)
}

func (v *Segment) visit(c codec) {
	c.uint64((*uint64)(&v.Id))
	c.str(&v.TenantID)
	c.uint64((*uint64)(&v.DatasetID))
	c.uint64((*uint64)(&v.DocumentID))
	c.str(&v.IndexNodeID)
	c.str(&v.IndexNodeHash)
	c.int(&v.Position)
	c.str(&v.Content)
	c.str(&v.Answer)
	c.int(&v.WordCount)
	c.int(&v.Tokens)
	c.boolean(&v.Enabled)
	c.str((*string)(&v.Status))
	c.str(&v.CreatedBy)
	c.vector(&v.Vector)
	c.time(&v.InsertedAt)
	c.time(&v.UpdatedAt)
}

func (v *QueryLogEntry) visit(c codec) {
	c.uint64((*uint64)(&v.Id))
	c.uint64((*uint64)(&v.DatasetID))
	c.str(&v.Content)
	c.str(&v.Source)
	c.str(&v.CreatedByRole)
	c.uint64((*uint64)(&v.CreatedBy))
	c.time(&v.InsertedAt)
}

// optional encodes a presence flag followed by the pointed-to value.
func optional[T any](c codec, p **T, fn func(*T)) {
	present := *p != nil
	c.boolean(&present)
	if !present {
		*p = nil
		return
	}
	if *p == nil {
		*p = new(T)
	}
	fn(*p)
}

type sizer struct {
	n int
}

func (s *sizer) uint64(v *uint64)   { s.n += varint.Uint64.Size(*v) }
func (s *sizer) int(v *int)         { s.n += varint.Int64.Size(int64(*v)) }
func (s *sizer) str(v *string)      { s.n += ord.String.Size(*v) }
func (s *sizer) boolean(v *bool)    { s.n += ord.Bool.Size(*v) }
func (s *sizer) float32(v *float32) { s.n += raw.Float32.Size(*v) }
func (s *sizer) time(v *time.Time)  { s.n += varint.Int64.Size(v.UnixMicro()) }
func (s *sizer) vector(v *[]float32) {
	s.n += varint.Uint64.Size(uint64(len(*v)))
	for _, f := range *v {
		s.n += raw.Float32.Size(f)
	}
}

type encoder struct {
	bs []byte
	n  int
}

func (e *encoder) uint64(v *uint64)   { e.n += varint.Uint64.Marshal(*v, e.bs[e.n:]) }
func (e *encoder) int(v *int)         { e.n += varint.Int64.Marshal(int64(*v), e.bs[e.n:]) }
func (e *encoder) str(v *string)      { e.n += ord.String.Marshal(*v, e.bs[e.n:]) }
func (e *encoder) boolean(v *bool)    { e.n += ord.Bool.Marshal(*v, e.bs[e.n:]) }
func (e *encoder) float32(v *float32) { e.n += raw.Float32.Marshal(*v, e.bs[e.n:]) }
func (e *encoder) time(v *time.Time)  { e.n += varint.Int64.Marshal(v.UnixMicro(), e.bs[e.n:]) }
func (e *encoder) vector(v *[]float32) {
	e.n += varint.Uint64.Marshal(uint64(len(*v)), e.bs[e.n:])
	for _, f := range *v {
		e.n += raw.Float32.Marshal(f, e.bs[e.n:])
	}
}

// decoder stops at the first error; later visits are no-ops.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) uint64(v *uint64) {
	if d.err != nil {
		return
	}
	var n int
	*v, n, d.err = varint.Uint64.Unmarshal(d.bs[d.n:])
	d.n += n
}

func (d *decoder) int(v *int) {
	if d.err != nil {
		return
	}
	i, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	*v, d.err = int(i), err
	d.n += n
}

func (d *decoder) str(v *string) {
	if d.err != nil {
		return
	}
	var n int
	*v, n, d.err = ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
}

func (d *decoder) boolean(v *bool) {
	if d.err != nil {
		return
	}
	var n int
	*v, n, d.err = ord.Bool.Unmarshal(d.bs[d.n:])
	d.n += n
}

func (d *decoder) float32(v *float32) {
	if d.err != nil {
		return
	}
	var n int
	*v, n, d.err = raw.Float32.Unmarshal(d.bs[d.n:])
	d.n += n
}

func (d *decoder) time(v *time.Time) {
	if d.err != nil {
		return
	}
	us, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	if err != nil {
		d.err = err
		return
	}
	*v = time.UnixMicro(us).UTC()
}

func (d *decoder) vector(v *[]float32) {
	if d.err != nil {
		return
	}
	var length uint64
	d.uint64(&length)
	if d.err != nil {
		return
	}
	if length == 0 {
		*v = nil
		return
	}
	// Four bytes per element
	if length > uint64(len(d.bs)-d.n)/4 {
		d.err = ErrCorruptRecord
		return
	}
	vec := make([]float32, length)
	for i := range vec {
		d.float32(&vec[i])
		if d.err != nil {
			return
		}
	}
	*v = vec
}
