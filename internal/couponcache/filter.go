// Package couponcache provides a local negative cache of known coupon codes.
// The sales service owns discount rules and stays authoritative; the filter
// only lets the storefront reject definitively-unknown codes without a
// network round trip.
package couponcache

import (
	"os"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

// Filter wraps a bloom filter over normalized coupon codes. A nil *Filter is
// usable and answers true for every code, degrading to server-only
// validation.
type Filter struct {
	bf *bloom.BloomFilter
}

// New builds an empty filter sized for n codes at the given false-positive
// rate.
func New(n uint, fpr float64) *Filter {
	return &Filter{bf: bloom.NewWithEstimates(n, fpr)}
}

// Add inserts a code after normalization.
func (f *Filter) Add(code string) {
	f.bf.AddString(normalize(code))
}

// MayContain reports whether the code might be a known coupon. False is
// definitive; true can be a false positive and still requires server
// validation.
func (f *Filter) MayContain(code string) bool {
	if f == nil || f.bf == nil {
		return true
	}
	return f.bf.TestString(normalize(code))
}

// WriteFile persists the filter snapshot to path.
func (f *Filter) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create filter snapshot")
	}
	defer file.Close()

	if _, err := f.bf.WriteTo(file); err != nil {
		return errors.Wrap(err, "write filter snapshot")
	}
	return file.Close()
}

// LoadFile reads a filter snapshot written by WriteFile.
func LoadFile(path string) (*Filter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open filter snapshot")
	}
	defer file.Close()

	var bf bloom.BloomFilter
	if _, err := bf.ReadFrom(file); err != nil {
		return nil, errors.Wrap(err, "read filter snapshot")
	}
	return &Filter{bf: &bf}, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
