package embedder

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/pprl-toolkit/pprl-go/internal/features"
	"github.com/pprl-toolkit/pprl-go/internal/pprlerr"
)

// magic identifies the on-disk Embedder format.
var magic = [4]byte{'P', 'P', 'R', 'L'}

const formatVersion = uint16(1)

// Save serialises the Embedder to w: its Bloom parameters, salt,
// feature-registry identities, and the three affinity matrices (A,
// FMatch, FUnmatch). The registry's actual functions are never
// serialised, only their stable identity strings — a deserialised
// Embedder must be handed a matching Registry on Load to resolve them
// back to callable feature functions.
//
// Format:
//
//	[4]byte  magic
//	uint16   version
//	uint32   size
//	uint32   numHashes
//	uint32   offset
//	uint32   saltLen
//	byte     salt[saltLen]
//	uint32   registryEntryCount
//	--- per entry ---
//	uint32   kindLen
//	byte     kind[kindLen]
//	uint32   identityLen
//	byte     identity[identityLen]
//	uint32   dim
//	float64  a[dim*dim]
//	float64  fMatch[dim*dim]
//	float64  fUnmatch[dim*dim]
func (e *Embedder) Save(w io.Writer) error {
	bw := &binaryWriter{w: w}

	bw.write(magic)
	bw.writeU16(formatVersion)
	bw.writeU32(uint32(e.size))
	bw.writeU32(uint32(e.numHashes))
	bw.writeU32(uint32(e.offset))
	bw.writeU32(uint32(len(e.salt)))
	bw.writeBytes(e.salt)

	kinds := make([]string, 0, len(e.registry))
	for kind := range e.registry {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	bw.writeU32(uint32(len(kinds)))
	for _, kind := range kinds {
		entry := e.registry[features.ColumnKind(kind)]
		bw.writeU32(uint32(len(kind)))
		bw.writeBytes([]byte(kind))
		bw.writeU32(uint32(len(entry.Identity)))
		bw.writeBytes([]byte(entry.Identity))
	}

	dim := e.dim()
	bw.writeU32(uint32(dim))
	writeSymMatrix(bw, e.a, dim)
	writeSymMatrix(bw, e.fMatch, dim)
	writeSymMatrix(bw, e.fUnmatch, dim)

	return bw.err
}

// Load reconstructs an Embedder from a reader previously produced by
// Save. registry supplies the live feature functions; each loaded
// registry-entry identity must match registry[kind].Identity exactly,
// otherwise Load refuses to proceed since the resulting Embedder would
// silently encode differently from the one that wrote the file.
func Load(r io.Reader, registry features.Registry, base Options) (*Embedder, error) {
	br := &binaryReader{r: r}

	var gotMagic [4]byte
	br.read(&gotMagic)
	if br.err == nil && gotMagic != magic {
		return nil, fmt.Errorf("%w: bad magic bytes, not a pprl embedder file", pprlerr.ErrLoadError)
	}

	version := br.readU32_16()
	if br.err == nil && version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d (expected %d)", pprlerr.ErrLoadError, version, formatVersion)
	}

	size := int(br.readU32())
	numHashes := int(br.readU32())
	offset := int(br.readU32())
	saltLen := int(br.readU32())
	salt := br.readBytes(saltLen)

	entryCount := int(br.readU32())
	loaded := make(map[string]string, entryCount)
	order := make([]string, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		kindLen := int(br.readU32())
		kind := string(br.readBytes(kindLen))
		identityLen := int(br.readU32())
		identity := string(br.readBytes(identityLen))
		loaded[kind] = identity
		order = append(order, kind)
	}

	dim := int(br.readU32())
	a := readSymMatrix(br, dim)
	fMatch := readSymMatrix(br, dim)
	fUnmatch := readSymMatrix(br, dim)

	if br.err != nil {
		return nil, fmt.Errorf("%w: %v", pprlerr.ErrLoadError, br.err)
	}

	if registry == nil {
		registry = features.DefaultRegistry()
	}
	for _, kind := range order {
		entry, ok := registry[features.ColumnKind(kind)]
		if !ok {
			return nil, fmt.Errorf("%w: file requires feature kind %q, not present in supplied registry", pprlerr.ErrLoadError, kind)
		}
		if entry.Identity != loaded[kind] {
			return nil, fmt.Errorf("%w: feature kind %q has identity %q in supplied registry, file was written with %q",
				pprlerr.ErrLoadError, kind, entry.Identity, loaded[kind])
		}
	}

	base.Size, base.NumHashes, base.Offset, base.Salt, base.Registry = size, numHashes, offset, salt, registry
	e, err := New(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pprlerr.ErrLoadError, err)
	}
	e.a = a
	e.fMatch = fMatch
	e.fUnmatch = fUnmatch
	e.checksum = e.computeChecksum()

	return e, nil
}

func writeSymMatrix(bw *binaryWriter, m *mat.SymDense, dim int) {
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			bw.writeF64(m.At(i, j))
		}
	}
}

func readSymMatrix(br *binaryReader, dim int) *mat.SymDense {
	out := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			v := br.readF64()
			if j >= i {
				out.SetSym(i, j, v)
			}
		}
	}
	return out
}

// binaryWriter wraps an io.Writer and accumulates the first error,
// adapted from the sift HNSW persistence format.
type binaryWriter struct {
	w   io.Writer
	err error
}

func (bw *binaryWriter) write(v interface{}) {
	if bw.err != nil {
		return
	}
	bw.err = binary.Write(bw.w, binary.LittleEndian, v)
}
func (bw *binaryWriter) writeU16(v uint16)  { bw.write(v) }
func (bw *binaryWriter) writeU32(v uint32)  { bw.write(v) }
func (bw *binaryWriter) writeF64(v float64) { bw.write(v) }
func (bw *binaryWriter) writeBytes(b []byte) {
	if bw.err != nil || len(b) == 0 {
		return
	}
	_, bw.err = bw.w.Write(b)
}

// binaryReader wraps an io.Reader and accumulates the first error.
type binaryReader struct {
	r   io.Reader
	err error
}

func (br *binaryReader) read(v interface{}) {
	if br.err != nil {
		return
	}
	br.err = binary.Read(br.r, binary.LittleEndian, v)
}
func (br *binaryReader) readU32() uint32 {
	var v uint32
	br.read(&v)
	return v
}
func (br *binaryReader) readU32_16() uint16 {
	var v uint16
	br.read(&v)
	return v
}
func (br *binaryReader) readF64() float64 {
	var v float64
	br.read(&v)
	return v
}
func (br *binaryReader) readBytes(n int) []byte {
	if n == 0 || br.err != nil {
		return nil
	}
	out := make([]byte, n)
	br.err = binary.Read(br.r, binary.LittleEndian, out)
	return out
}
