package tracing

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sarchlab/pmsmsim/loop"
	"github.com/tebeka/atexit"
)

// CSVHeader is the first line of every file written by a CSVBackend.
const CSVHeader = "step,time_s,ia_A,ib_A,ic_A,theta_e_rad," +
	"duty_a_pct,duty_b_pct,duty_c_pct," +
	"id_meas_A,iq_meas_A,omega_rad_s,theta_m_rad,torque_Nm"

// CSVBackend stores samples into a CSV file.
type CSVBackend struct {
	path   string
	file   *os.File
	writer *bufio.Writer

	samples    []loop.Sample
	bufferSize int
	closed     bool
}

// NewCSVBackend creates a new CSVBackend. Call Init before writing.
func NewCSVBackend(path string) *CSVBackend {
	return &CSVBackend{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the CSV file and writes the header. If the file already
// exists, it will be overwritten.
func (t *CSVBackend) Init() error {
	file, err := os.Create(t.path)
	if err != nil {
		return err
	}

	t.file = file
	t.writer = bufio.NewWriter(file)

	fmt.Fprintln(t.writer, CSVHeader)

	atexit.Register(func() {
		err := t.Close()
		if err != nil {
			panic(err)
		}
	})

	return nil
}

// Path returns where the file is written.
func (t *CSVBackend) Path() string {
	return t.path
}

// Write buffers a sample.
func (t *CSVBackend) Write(sample loop.Sample) {
	t.samples = append(t.samples, sample)
	if len(t.samples) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered samples to the CSV file.
func (t *CSVBackend) Flush() {
	if t.closed {
		return
	}

	for _, s := range t.samples {
		fmt.Fprintf(t.writer,
			"%d,%.7f,%.9g,%.9g,%.9g,%.9g,%.6f,%.6f,%.6f,%.9g,%.9g,%.9g,%.9g,%.9g\n",
			s.Step,
			s.Time,
			s.Ia, s.Ib, s.Ic,
			s.ThetaE,
			s.DutyA, s.DutyB, s.DutyC,
			s.IdMeas, s.IqMeas,
			s.Omega,
			s.ThetaM,
			s.Torque,
		)
	}

	t.samples = nil

	err := t.writer.Flush()
	if err != nil {
		panic(err)
	}
}

// Close flushes and closes the file. Closing twice is a no-op.
func (t *CSVBackend) Close() error {
	if t.closed || t.file == nil {
		return nil
	}

	t.Flush()
	t.closed = true

	return t.file.Close()
}
