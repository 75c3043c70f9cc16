// Package factorize implements the factorization pipeline for mprsa.
//
// Strategies run strictly in sequence, each on the cofactor the previous one
// left behind:
//
//  1. Pollard's rho on the modulus, peeling off one factor.
//  2. Trial division of the cofactor.
//  3. The large-factor provider for a composite cofactor above the size
//     threshold, and bounded rho sweeps for smaller composites.
//  4. Whatever remains is accepted as a single residual factor.
//
// The pipeline halts as soon as the cofactor reaches 1 and never repeats a
// stage. A residual that could not be certified is marked probable (or
// composite) in the result so callers can tell a complete factorization from
// a provisional one.
package factorize

import (
	"context"
	"io"
	"log"
	"math/big"
	"time"

	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/core"
	"github.com/BackendStack21/mprsa-go/strategies/ecm"
	"github.com/BackendStack21/mprsa-go/utils"
)

// ErrInvalidModulus indicates a modulus the pipeline refuses to work on.
var ErrInvalidModulus = errors.New("invalid modulus")

// Orchestrator runs the factorization pipeline with a fixed parameter set.
type Orchestrator struct {
	params   mprsa.Params
	provider ecm.Provider
	known    []*big.Int
	logger   *log.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvider replaces the default large-factor provider.
func WithProvider(p ecm.Provider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithKnownFactors makes factors found by earlier runs available to the
// large-factor stage. They are tried before the provider.
func WithKnownFactors(factors []*big.Int) Option {
	return func(o *Orchestrator) { o.known = append(o.known, factors...) }
}

// WithLogger sets the progress logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New validates params and builds an orchestrator. Without WithProvider the
// large-factor stage runs GMP-ECM and falls back to in-process ECM, with the
// lattigo finder splitting whatever small composite they leave.
func New(params mprsa.Params, opts ...Option) (*Orchestrator, error) {
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	o := &Orchestrator{params: params}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if o.provider == nil {
		chain := ecm.Chain{ecm.NewExec(params.Large, o.logger)}
		if params.Large.LocalCurves > 0 {
			chain = append(chain, ecm.NewLenstra(params.Large, o.logger))
		}
		chain = append(chain, ecm.NewLibrary(params.Large))
		o.provider = chain
	}
	if len(o.known) > 0 {
		o.provider = ecm.Chain{&ecm.Known{Factors: o.known}, o.provider}
	}
	return o, nil
}

// Params returns the parameter set the orchestrator runs with.
func (o *Orchestrator) Params() mprsa.Params {
	return o.params
}

// Provider returns the large-factor provider in use.
func (o *Orchestrator) Provider() ecm.Provider {
	return o.provider
}

// Factorize produces the factor multiset of n. The result always multiplies
// back to n; check Complete and Provisional before trusting it.
func (o *Orchestrator) Factorize(ctx context.Context, n *big.Int) (*mprsa.Factorization, error) {
	if err := utils.CheckBitLength(n, utils.MaxModulusBits); err != nil {
		return nil, errors.Wrap(ErrInvalidModulus, err.Error())
	}
	if n.Cmp(big.NewInt(2)) < 0 {
		return nil, errors.Wrap(ErrInvalidModulus, "modulus must be at least 2")
	}

	start := time.Now()
	fz := &mprsa.Factorization{
		Modulus:     new(big.Int).Set(n),
		Fingerprint: utils.Fingerprint(n),
	}
	o.logger.Printf("factorize: %d-bit modulus %s", n.BitLen(), fz.Fingerprint[:16])

	// Stage 1: rho on the modulus.
	st, rr := RhoStage(n, o.params.Rho, o.params.Trial.Bound)
	o.logger.Printf("factorize: rho %s after %d iterations (%d attempts)", rr.Outcome, rr.Iterations, rr.Attempts)
	cof := o.collect(fz, st)

	// Stage 2: trial division.
	if !utils.IsOne(cof) {
		st = TrialStage(cof, o.params.Trial.Bound)
		o.logger.Printf("factorize: trial division up to %d found %d factors", o.params.Trial.Bound, len(st.Factors))
		cof = o.collect(fz, st)
	}

	// Stage 3: large factors.
	if !utils.IsOne(cof) {
		var err error
		st, err = LargeFactorStage(ctx, cof, o.params, o.provider, o.logger)
		if err != nil {
			o.logger.Printf("factorize: large-factor stage: %v", err)
		}
		cof = o.collect(fz, st)
	}

	// Stage 4: accept the residual.
	st = ResidualStage(cof)
	for _, f := range st.Factors {
		o.logger.Printf("factorize: accepting %d-bit residual as %s", f.Value.BitLen(), f.Kind)
	}
	o.collect(fz, st)

	if !fz.Verify() {
		return nil, errors.New("factor product does not match modulus")
	}
	o.logger.Printf("factorize: %d factors in %v (complete=%v)", len(fz.Factors), time.Since(start).Round(time.Millisecond), fz.Complete())
	return fz, nil
}

// collect appends a stage's factors and records its cofactor.
func (o *Orchestrator) collect(fz *mprsa.Factorization, st mprsa.StageResult) *big.Int {
	fz.Factors = append(fz.Factors, st.Factors...)
	fz.Cofactor = st.Cofactor
	return st.Cofactor
}
