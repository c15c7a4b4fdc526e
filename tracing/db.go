package tracing

import (
	"github.com/sarchlab/pmsmsim/datarecording"
	"github.com/sarchlab/pmsmsim/loop"
)

// SampleTableName is the table that a DBBackend writes into.
const SampleTableName = "samples"

// DBBackend stores samples into a table of a DataRecorder.
type DBBackend struct {
	recorder datarecording.DataRecorder
}

// NewDBBackend creates a DBBackend and the sample table.
func NewDBBackend(recorder datarecording.DataRecorder) *DBBackend {
	recorder.CreateTable(SampleTableName, loop.Sample{})

	return &DBBackend{recorder: recorder}
}

// Write buffers a sample in the recorder.
func (b *DBBackend) Write(sample loop.Sample) {
	b.recorder.InsertData(SampleTableName, sample)
}

// Flush writes the buffered samples to the database.
func (b *DBBackend) Flush() {
	b.recorder.Flush()
}
