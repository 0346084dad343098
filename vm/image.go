// Package vm decodes, disassembles and simulates arm controller images the
// way the controller firmware does.
package vm

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrTruncated          = errors.New("vm: image truncated")
	ErrDamaged            = errors.New("vm: image damaged")
	ErrConstAreaTooLarge  = errors.New("vm: constant area too large")
	ErrGlobalAreaTooLarge = errors.New("vm: global area too large")
)

const (
	// Limits enforced by the controller when it loads an image.
	MaxConstBytes = 4096
	MaxGlobals    = 4096
	StackBytes    = 4096

	slotSize     = 4
	checksumSize = md5.Size
)

// Image is a decoded program image.
type Image struct {
	Constants []uint32
	Globals   int
	Program   []byte
}

// Decode validates the size field and checksum of b and splits it into
// its regions.
func Decode(b []byte) (*Image, error) {
	if len(b) < 4 {
		return nil, ErrTruncated
	}
	total := int(binary.LittleEndian.Uint32(b))
	if total < 4+2+2+checksumSize || total > len(b) {
		return nil, fmt.Errorf("%w: size field %d, have %d bytes", ErrTruncated, total, len(b))
	}
	b = b[:total]
	body, sum := b[:total-checksumSize], b[total-checksumSize:]
	want := md5.Sum(body)
	if !bytes.Equal(sum, want[:]) {
		return nil, ErrDamaged
	}

	pos := 4
	consts := int(binary.LittleEndian.Uint16(body[pos:]))
	pos += 2
	if pos+consts*slotSize+2 > len(body) {
		return nil, fmt.Errorf("%w: %d constants", ErrTruncated, consts)
	}
	img := &Image{Constants: make([]uint32, consts)}
	for i := range img.Constants {
		img.Constants[i] = binary.LittleEndian.Uint32(body[pos:])
		pos += slotSize
	}
	img.Globals = int(binary.LittleEndian.Uint16(body[pos:]))
	pos += 2
	img.Program = body[pos:]
	return img, nil
}

// CheckLimits reports whether the controller would accept img.
func CheckLimits(img *Image) error {
	if len(img.Constants)*slotSize > MaxConstBytes {
		return ErrConstAreaTooLarge
	}
	if img.Globals > MaxGlobals {
		return ErrGlobalAreaTooLarge
	}
	return nil
}
