package sphinx

import (
	"encoding/json"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Posting is the set of document indices associated with a term.
//
// The wire format is compact: a term appearing in a single document is
// encoded as a bare integer, otherwise as a sorted array of integers.
// Decoding accepts both forms; encoding always re-emits the compact form,
// so a decode/encode cycle is the identity on the mapping.
type Posting struct {
	bm *roaring.Bitmap
}

// NewPosting creates a posting containing the given document indices.
func NewPosting(indices ...int) Posting {
	bm := roaring.New()
	for _, i := range indices {
		bm.Add(uint32(i))
	}
	return Posting{bm: bm}
}

// Len returns the number of document indices in the posting.
func (p Posting) Len() int {
	if p.bm == nil {
		return 0
	}
	return int(p.bm.GetCardinality())
}

// Contains reports whether the posting includes the given document index.
func (p Posting) Contains(index int) bool {
	if p.bm == nil || index < 0 {
		return false
	}
	return p.bm.Contains(uint32(index))
}

// Indices returns the document indices in ascending order.
func (p Posting) Indices() []int {
	if p.bm == nil {
		return nil
	}
	out := make([]int, 0, p.bm.GetCardinality())
	it := p.bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// And returns the intersection of two postings.
func (p Posting) And(other Posting) Posting {
	if p.bm == nil || other.bm == nil {
		return NewPosting()
	}
	return Posting{bm: roaring.And(p.bm, other.bm)}
}

// Or returns the union of two postings.
func (p Posting) Or(other Posting) Posting {
	switch {
	case p.bm == nil && other.bm == nil:
		return NewPosting()
	case p.bm == nil:
		return Posting{bm: other.bm.Clone()}
	case other.bm == nil:
		return Posting{bm: p.bm.Clone()}
	}
	return Posting{bm: roaring.Or(p.bm, other.bm)}
}

// Equal reports whether two postings contain the same document indices.
func (p Posting) Equal(other Posting) bool {
	if p.Len() == 0 && other.Len() == 0 {
		return true
	}
	if p.bm == nil || other.bm == nil {
		return false
	}
	return p.bm.Equals(other.bm)
}

// MaxIndex returns the largest document index in the posting.
// Returns -1 for an empty posting.
func (p Posting) MaxIndex() int {
	if p.Len() == 0 {
		return -1
	}
	return int(p.bm.Maximum())
}

// UnmarshalJSON decodes either a bare integer or an array of integers.
func (p *Posting) UnmarshalJSON(data []byte) error {
	var single int
	if err := json.Unmarshal(data, &single); err == nil {
		if single < 0 {
			return fmt.Errorf("negative document index: %d", single)
		}
		*p = NewPosting(single)
		return nil
	}

	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("posting must be an integer or an array of integers: %w", err)
	}
	for _, i := range many {
		if i < 0 {
			return fmt.Errorf("negative document index: %d", i)
		}
	}
	*p = NewPosting(many...)
	return nil
}

// MarshalJSON emits the compact wire form: a bare integer for a singleton
// posting, a sorted array otherwise.
func (p Posting) MarshalJSON() ([]byte, error) {
	indices := p.Indices()
	if len(indices) == 1 {
		return json.Marshal(indices[0])
	}
	if indices == nil {
		indices = []int{}
	}
	return json.Marshal(indices)
}
