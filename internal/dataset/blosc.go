package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// Blosc1 frame layout: a 16-byte header, one int32 start offset per block,
// then per block one or more length-prefixed compressed streams ("splits").
const (
	bloscHeaderSize = 16
	bloscMinBuffer  = 128
	bloscMaxSplits  = 16

	bloscShuffle    = 0x01
	bloscMemcpyed   = 0x02
	bloscBitShuffle = 0x04
	bloscDontSplit  = 0x10
)

const (
	bloscCodecBloscLZ byte = iota
	bloscCodecLZ4
	bloscCodecSnappy
	bloscCodecZlib
	bloscCodecZstd
)

var bloscCodecNames = map[byte]string{
	bloscCodecBloscLZ: "blosclz",
	bloscCodecLZ4:     "lz4",
	bloscCodecSnappy:  "snappy",
	bloscCodecZlib:    "zlib",
	bloscCodecZstd:    "zstd",
}

var errBloscTruncated = errors.New("blosc: frame is truncated")

// decodeBlosc decodes one Blosc1 frame, the format numcodecs writes for the
// "blosc" compressor.
func decodeBlosc(frame []byte) ([]byte, error) {
	if len(frame) < bloscHeaderSize {
		return nil, errBloscTruncated
	}
	flags := frame[2]
	typesize := int(frame[3])
	nbytes := int(binary.LittleEndian.Uint32(frame[4:]))
	blocksize := int(binary.LittleEndian.Uint32(frame[8:]))
	cbytes := int(binary.LittleEndian.Uint32(frame[12:]))
	if cbytes < bloscHeaderSize || cbytes > len(frame) {
		return nil, errBloscTruncated
	}
	frame = frame[:cbytes]

	if flags&bloscMemcpyed != 0 {
		if bloscHeaderSize+nbytes > len(frame) {
			return nil, errBloscTruncated
		}
		return slices.Clone(frame[bloscHeaderSize : bloscHeaderSize+nbytes]), nil
	}
	if flags&bloscBitShuffle != 0 {
		return nil, errors.New("blosc: bit shuffle is not supported")
	}
	if nbytes == 0 {
		return []byte{}, nil
	}
	if blocksize <= 0 || typesize == 0 {
		return nil, fmt.Errorf("blosc: invalid header (blocksize %d, typesize %d)", blocksize, typesize)
	}

	nblocks := nbytes / blocksize
	leftover := nbytes % blocksize
	if leftover > 0 {
		nblocks++
	}
	if bloscHeaderSize+4*nblocks > len(frame) {
		return nil, errBloscTruncated
	}

	out := make([]byte, nbytes)
	codec := flags >> 5
	for b := range nblocks {
		start := int(binary.LittleEndian.Uint32(frame[bloscHeaderSize+4*b:]))
		end := min((b+1)*blocksize, nbytes)
		last := leftover > 0 && b == nblocks-1
		if err := decodeBloscBlock(frame, start, out[b*blocksize:end], codec, flags, typesize, last); err != nil {
			return nil, fmt.Errorf("blosc: block %d: %w", b, err)
		}
	}
	return out, nil
}

func decodeBloscBlock(frame []byte, pos int, dst []byte, codec, flags byte, typesize int, leftover bool) error {
	bsize := len(dst)
	nsplits := 1
	if flags&bloscDontSplit == 0 && !leftover && typesize <= bloscMaxSplits && bsize/typesize >= bloscMinBuffer {
		nsplits = typesize
	}
	if bsize%nsplits != 0 {
		return fmt.Errorf("block of %d bytes cannot hold %d splits", bsize, nsplits)
	}

	shuffled := flags&bloscShuffle != 0 && typesize > 1
	buf := dst
	if shuffled {
		buf = make([]byte, bsize)
	}

	neblock := bsize / nsplits
	for j := range nsplits {
		if pos < 0 || pos+4 > len(frame) {
			return errBloscTruncated
		}
		csize := int(int32(binary.LittleEndian.Uint32(frame[pos:])))
		pos += 4
		if csize < 0 || pos+csize > len(frame) {
			return errBloscTruncated
		}
		src := frame[pos : pos+csize]
		pos += csize

		part := buf[j*neblock : (j+1)*neblock]
		if csize == neblock {
			copy(part, src)
			continue
		}
		if err := decodeBloscSplit(codec, src, part); err != nil {
			return err
		}
	}

	if shuffled {
		unshuffle(dst, buf, typesize)
	}
	return nil
}

func decodeBloscSplit(codec byte, src, dst []byte) error {
	var (
		out []byte
		err error
	)
	switch codec {
	case bloscCodecLZ4:
		var n int
		n, err = lz4.UncompressBlock(src, dst)
		if err == nil && n != len(dst) {
			err = fmt.Errorf("lz4 produced %d bytes, want %d", n, len(dst))
		}
		return err
	case bloscCodecSnappy:
		out, err = snappy.Decode(nil, src)
	case bloscCodecZlib:
		var r io.ReadCloser
		r, err = zlib.NewReader(bytes.NewReader(src))
		if err != nil {
			return err
		}
		defer r.Close()
		_, err = io.ReadFull(r, dst)
		return err
	case bloscCodecZstd:
		out, err = zstdDecoder.DecodeAll(src, nil)
	default:
		name, ok := bloscCodecNames[codec]
		if !ok {
			name = fmt.Sprintf("#%d", codec)
		}
		return fmt.Errorf("blosc codec %s is not supported", name)
	}
	if err != nil {
		return err
	}
	if len(out) != len(dst) {
		return fmt.Errorf("decoded %d bytes, want %d", len(out), len(dst))
	}
	copy(dst, out)
	return nil
}

// unshuffle reverses the Blosc byte shuffle, which stores byte i of every
// element contiguously. Trailing bytes that do not fill an element are kept
// in place.
func unshuffle(dst, src []byte, typesize int) {
	n := len(src) / typesize
	for j := range n {
		for i := range typesize {
			dst[j*typesize+i] = src[i*n+j]
		}
	}
	copy(dst[n*typesize:], src[n*typesize:])
}
