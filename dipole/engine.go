// Package dipole wires the macrocell dipole-field calculation together:
// one engine per rank owns the tensor store for its local cells, builds it
// once at startup, and refreshes the per-cell dipole field every timestep
// from the externally mutated cell moments.
package dipole

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/spindyn/DipoleKernel/cells"
	"github.com/spindyn/DipoleKernel/comm"
	"github.com/spindyn/DipoleKernel/partitions"
	"github.com/spindyn/DipoleKernel/tensor"
)

// Config controls engine construction
type Config struct {
	// Enabled gates the whole calculation; a disabled engine no-ops on
	// every call. The flag is owned by the orchestrating simulation.
	Enabled bool

	// Log receives diagnostic output; defaults to stderr
	Log *log.Logger

	// Stdout receives the operator-facing progress lines; defaults to
	// os.Stdout
	Stdout io.Writer
}

// engine lifecycle states
type state int

const (
	uninitialized state = iota
	ready
)

// Engine owns one rank's share of the dipole tensor and the derived field.
// Initialization transitions it from uninitialized to ready exactly once;
// repeated initialization is a checked no-op.
type Engine struct {
	cfg    Config
	ens    *cells.Ensemble
	rank   *partitions.RankCells
	comm   comm.Communicator
	state  state
	store  *tensor.Store
	fields []r3.Vec
	demag  *mat.SymDense
}

// New creates an engine for the calling rank. The ensemble and cell set
// are read-only inputs owned by the geometry subsystem; the communicator
// must span the same world the layout was decomposed for.
func New(cfg Config, ens *cells.Ensemble, rank *partitions.RankCells, c comm.Communicator) *Engine {
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", log.LstdFlags)
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	return &Engine{
		cfg:  cfg,
		ens:  ens,
		rank: rank,
		comm: c,
	}
}

// Initialize allocates and builds the dipole tensor, evaluates the initial
// field, and reports the demagnetizing-factor tensor. Calling it on an
// already-initialized engine logs a warning and leaves all state untouched.
func (e *Engine) Initialize() {
	if !e.cfg.Enabled {
		return
	}
	if e.state == ready {
		e.cfg.Log.Println("Warning: dipole field calculation already initialised. Continuing.")
		return
	}

	e.cfg.Log.Println("Initialising dipole field calculation")
	fmt.Fprintln(e.cfg.Stdout, "Initialising dipole field calculation")

	numLocal := e.rank.NumLocalCells()
	numCells := e.ens.NumCells()

	// Advertise the memory footprint before committing to it
	mb := float64(tensor.EstimateBytes(numLocal, numCells)) / 1.0e6
	e.cfg.Log.Printf("Dipole field calculation requires %.3f MB of RAM", mb)
	fmt.Fprintf(e.cfg.Stdout, "Dipole field calculation requires %.3f MB of RAM\n", mb)
	e.cfg.Log.Printf("Number of local cells for dipole calculation = %d", numLocal)
	e.cfg.Log.Printf("Number of total cells for dipole calculation = %d", numCells)

	e.fields = make([]r3.Vec, numLocal)

	// A rank the decomposition left without cells has no tensor rows to
	// build or evaluate, but it must still take part in every collective
	if numLocal > 0 {
		e.store = tensor.NewStore(numLocal, numCells)
	}

	// One-shot tensor build, timed and synchronized
	e.cfg.Log.Println("Precalculating interaction tensor for dipole calculation...")
	start := time.Now()
	if e.store != nil {
		(&tensor.Builder{Ensemble: e.ens, Rank: e.rank}).Build(e.store)
	}
	e.comm.Barrier()
	build := time.Since(start)
	fmt.Fprintf(e.cfg.Stdout, "Tensor precalculation done! [ %v ]\n", build)
	e.cfg.Log.Printf("Precalculation of dipole tensor complete. Time taken: %v", build)

	e.state = ready

	// Initial field update
	start = time.Now()
	if e.store != nil {
		e.store.Evaluate(e.ens.Moment, e.fields)
	}
	e.comm.Barrier()
	e.cfg.Log.Printf("Time required for dipole update: %v", time.Since(start))

	// The demag tensor depends only on the sample shape, so it is derived
	// and reported once, at simulation start
	var numMagnetic int
	e.demag, numMagnetic = tensor.DemagFactor(e.store, e.ens, e.rank, e.comm)
	e.cfg.Log.Printf("Number of magnetic atoms = %d", numMagnetic)
	e.cfg.Log.Printf("Demagnetisation factor tensor:\n%s", formatDemag(e.demag))
	fmt.Fprintf(e.cfg.Stdout, "Demagnetisation factor tensor:\n%s", formatDemag(e.demag))
}

// Update refreshes the per-local-cell dipole field from the current cell
// moments. It must be called by every rank each timestep; the trailing
// barrier guarantees no rank consumes the field before all ranks have
// produced their share.
func (e *Engine) Update() {
	if !e.cfg.Enabled || e.state != ready {
		return
	}
	if e.store != nil {
		e.store.Evaluate(e.ens.Moment, e.fields)
	}
	e.comm.Barrier()
}

// Fields returns the dipole field at each local cell, indexed by local row
func (e *Engine) Fields() []r3.Vec { return e.fields }

// Field returns the dipole field at one local cell
func (e *Engine) Field(lc partitions.LocalCell) r3.Vec { return e.fields[lc] }

// Demag returns the demagnetizing-factor tensor derived at initialization,
// or nil if the engine has not been initialized
func (e *Engine) Demag() *mat.SymDense { return e.demag }

// Store exposes the built tensor for diagnostics; read-only by contract.
// It is nil on a rank that owns no cells.
func (e *Engine) Store() *tensor.Store { return e.store }

// Ready reports whether the tensor has been built
func (e *Engine) Ready() bool { return e.state == ready }

// formatDemag renders the full 3x3 tensor row by row
func formatDemag(n *mat.SymDense) string {
	s := ""
	for i := 0; i < 3; i++ {
		s += fmt.Sprintf("  % .6e  % .6e  % .6e\n",
			n.At(i, 0), n.At(i, 1), n.At(i, 2))
	}
	return s
}
