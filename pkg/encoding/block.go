package encoding

import (
	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/decoder"
	jsonpool "github.com/ajitpratap0/jsoncol/pkg/json"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Kind is the encoding of a column block.
type Kind string

const (
	Plain      Kind = "plain"
	Dictionary Kind = "dictionary"
)

// Valid reports whether k is a known encoding.
func (k Kind) Valid() bool {
	return k == Plain || k == Dictionary
}

// PageKind tells data pages from dictionary pages.
type PageKind string

const (
	DataPage       PageKind = "data"
	DictionaryPage PageKind = "dictionary"
)

// Page is one independently compressed unit of a block.
type Page struct {
	Kind PageKind
	// NumValues is the row count of a data page, or the entry count of a
	// dictionary page.
	NumValues       int
	UncompressedLen int
	// Data is the compressed payload.
	Data []byte
}

// CompressedLen returns the stored size of the page.
func (p Page) CompressedLen() int {
	return len(p.Data)
}

// EncodedBlock is the encoded form of one column of one row group.
type EncodedBlock struct {
	Field    schema.Field
	Encoding Kind
	NumRows  int
	Pages    []Page
	Stats    Statistics
}

// UncompressedLen returns the total encoded size before compression.
func (b *EncodedBlock) UncompressedLen() int64 {
	var n int64
	for _, p := range b.Pages {
		n += int64(p.UncompressedLen)
	}
	return n
}

// CompressedLen returns the number of bytes the block occupies on disk.
func (b *EncodedBlock) CompressedLen() int64 {
	var n int64
	for _, p := range b.Pages {
		n += int64(len(p.Data))
	}
	return n
}

// Statistics summarise the values of a column. Min and Max are null when
// the column has no non-null value or its type has no order (mixed, null).
type Statistics struct {
	Type      schema.LogicalType
	Min       columnar.Value
	Max       columnar.Value
	NullCount int64
	// DistinctCount is -1 when no dictionary analysis ran.
	DistinctCount int64
}

// HasMinMax reports whether Min and Max are set.
func (s Statistics) HasMinMax() bool {
	return !s.Min.IsNull()
}

// Merge folds o into s. Distinct counts of different row groups cannot be
// combined, so the merged count is unknown.
func (s *Statistics) Merge(o Statistics) {
	if o.HasMinMax() {
		if !s.HasMinMax() || o.Min.Compare(s.Min) < 0 {
			s.Min = o.Min
		}
		if !s.HasMinMax() || o.Max.Compare(s.Max) > 0 {
			s.Max = o.Max
		}
	}
	s.NullCount += o.NullCount
	s.DistinctCount = -1
}

type statisticsJSON struct {
	Type          schema.LogicalType `json:"type"`
	Min           gojson.RawMessage  `json:"min,omitempty"`
	Max           gojson.RawMessage  `json:"max,omitempty"`
	NullCount     int64              `json:"null_count"`
	DistinctCount *int64             `json:"distinct_count,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (s Statistics) MarshalJSON() ([]byte, error) {
	out := statisticsJSON{Type: s.Type, NullCount: s.NullCount}
	if s.DistinctCount >= 0 {
		d := s.DistinctCount
		out.DistinctCount = &d
	}
	if s.HasMinMax() {
		var err error
		if out.Min, err = gojson.Marshal(s.Min.Interface()); err != nil {
			return nil, err
		}
		if out.Max, err = gojson.Marshal(s.Max.Interface()); err != nil {
			return nil, err
		}
	}
	return gojson.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var in statisticsJSON
	if err := gojson.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Statistics{Type: in.Type, NullCount: in.NullCount, DistinctCount: -1}
	if in.DistinctCount != nil {
		s.DistinctCount = *in.DistinctCount
	}
	if len(in.Min) == 0 {
		return nil
	}
	var err error
	if s.Min, err = parseStat(in.Type, in.Min); err != nil {
		return err
	}
	s.Max, err = parseStat(in.Type, in.Max)
	return err
}

func parseStat(t schema.LogicalType, raw gojson.RawMessage) (columnar.Value, error) {
	var v interface{}
	if err := jsonpool.Unmarshal(raw, &v); err != nil {
		return columnar.Value{}, err
	}
	if v == nil {
		return columnar.Value{}, colerrors.New(colerrors.ErrorTypeEncoding, "statistics bound is null")
	}
	return decoder.Coerce(t, v)
}
