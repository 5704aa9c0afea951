package model

// Observation is the source-agnostic record an adapter produces for one card.
// Card holds only the fields the source actually carries: Unset fields and
// languages without a value were not observed.
type Observation struct {
	Source   string
	Language Language
	// OnlyText marks a source that re-confirms text for an existing structure
	// rather than supplying the structure itself.
	OnlyText bool
	Card     Card
}

// ImageObservation is one scraped artwork, possibly without an identifier.
type ImageObservation struct {
	Source     string
	CardNumber string
	Rarity     string
	Language   Language
	Identifier Field[uint32]
	// ImgPath is where the artwork is stored relative to the images directory.
	ImgPath      string
	LastModified string
	Data         []byte
	Format       string
	// Fingerprint may be supplied when the adapter already hashed the image.
	Fingerprint string
	FetchErr    error
}

// Batch is what one source run produces.
type Batch struct {
	Observations []Observation
	Images       []ImageObservation
}

// Append adds the records of other to b.
func (b *Batch) Append(other Batch) {
	b.Observations = append(b.Observations, other.Observations...)
	b.Images = append(b.Images, other.Images...)
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Observations) + len(b.Images)
}
