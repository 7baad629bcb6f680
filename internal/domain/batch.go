package domain

// Batch is an ordered accumulation of record texts collected since the last
// flush. A record is one line of UTF-8 text; network-received and locally
// injected records are indistinguishable once inside a batch.
type Batch struct {
	records []string
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Append adds records to the end of the batch, preserving their order.
func (b *Batch) Append(records ...string) {
	b.records = append(b.records, records...)
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.records) == 0
}

// Take returns the accumulated records and resets the batch to empty.
// Ownership of the returned slice transfers to the caller; the batch does
// not retain a reference to it.
func (b *Batch) Take() []string {
	records := b.records
	b.records = nil
	return records
}
