package stays

import (
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// ReferenceCodec turns stay ids into short public references and back.
type ReferenceCodec interface {
	Encode(id int64) (string, error)
	Decode(ref string) (int64, error)
}

type hashidCodec struct {
	h *hashids.HashID
}

// NewReferenceCodec builds a hashids codec with an upper-case alphabet so
// references are easy to read out over the phone.
func NewReferenceCodec(salt string, minLength int) (ReferenceCodec, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = minLength
	hd.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashids: %w", err)
	}
	return &hashidCodec{h: h}, nil
}

func (c *hashidCodec) Encode(id int64) (string, error) {
	return c.h.EncodeInt64([]int64{id})
}

func (c *hashidCodec) Decode(ref string) (int64, error) {
	ids, err := c.h.DecodeInt64WithError(ref)
	if err != nil {
		return 0, ErrNotFound
	}
	if len(ids) != 1 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}
