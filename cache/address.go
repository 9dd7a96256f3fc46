package cache

// AddressDecoder splits an address into tag, index and line offset fields.
// It is stateless once built; addresses wider than the configured address
// width are not checked.
type AddressDecoder struct {
	lineBits  uint
	indexBits uint
	tagBits   uint
}

// NewAddressDecoder builds a decoder for the given configuration.
func NewAddressDecoder(config Config) AddressDecoder {
	g := config.Geometry()
	return AddressDecoder{
		lineBits:  g.LineBits,
		indexBits: g.IndexBits,
		tagBits:   g.TagBits,
	}
}

// Tag returns the tag field of addr.
func (d AddressDecoder) Tag(addr uint64) uint64 {
	return (addr >> (d.lineBits + d.indexBits)) & mask(d.tagBits)
}

// Index returns the set index of addr.
func (d AddressDecoder) Index(addr uint64) int {
	return int((addr >> d.lineBits) & mask(d.indexBits))
}

// Offset returns the byte offset of addr within its line.
func (d AddressDecoder) Offset(addr uint64) uint64 {
	return addr & mask(d.lineBits)
}

// mask returns n low bits set. n == 64 wraps to all ones.
func mask(n uint) uint64 {
	return (uint64(1) << n) - 1
}
