package encoding

import (
	"fmt"

	"github.com/ajitpratap0/jsoncol/pkg/compression"
)

const (
	// DefaultPageSize is the target encoded value size of a data page.
	DefaultPageSize = 1 << 20
	// DefaultDictPageSize caps the size of a dictionary page.
	DefaultDictPageSize = 1 << 20
	// DefaultDictionaryRatio is the distinct/non-null ratio under which a
	// column is dictionary encoded.
	DefaultDictionaryRatio = 0.5
)

// Options configure an Encoder.
type Options struct {
	// Codec compresses every page. Nil means no compression.
	Codec            compression.Compressor
	EnableDictionary bool
	DictionaryRatio  float64
	PageSize         int
	DictPageSize     int
}

// DefaultOptions returns uncompressed, plain-only options.
func DefaultOptions() Options {
	return Options{
		DictionaryRatio: DefaultDictionaryRatio,
		PageSize:        DefaultPageSize,
		DictPageSize:    DefaultDictPageSize,
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.PageSize < 1 {
		return fmt.Errorf("page size must be positive, got %d", o.PageSize)
	}
	if o.DictPageSize < 1 {
		return fmt.Errorf("dictionary page size must be positive, got %d", o.DictPageSize)
	}
	if o.DictionaryRatio <= 0 || o.DictionaryRatio > 1 {
		return fmt.Errorf("dictionary ratio must be in (0, 1], got %g", o.DictionaryRatio)
	}
	return nil
}
