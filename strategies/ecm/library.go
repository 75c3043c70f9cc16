package ecm

import (
	"context"
	"math/big"
	"time"

	"github.com/tuneinsight/lattigo/v5/utils/factorization"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/utils"
)

// DefaultLibraryBits caps the cofactors handed to the library finder when
// MaxBits is unset.
const DefaultLibraryBits = 128

// Library splits small composites with the lattigo ECM routine.
//
// The routine has no budget of its own and loops until it finds a factor, so
// it is only given composites of at most MaxBits bits. When ctx expires the
// call returns ErrTimeout while the search finishes in the background.
type Library struct {
	MaxBits int
}

// NewLibrary builds a library finder for cofactors up to the size threshold.
func NewLibrary(params mprsa.LargeFactorParams) *Library {
	return &Library{MaxBits: params.ThresholdBits}
}

func (l *Library) Name() string { return "lattigo-ecm" }

func (l *Library) maxBits() int {
	if l.MaxBits <= 0 {
		return DefaultLibraryBits
	}
	return l.MaxBits
}

// FindFactors fully splits n when it is small enough. Larger inputs are left
// alone without an error, like a finder that found nothing.
func (l *Library) FindFactors(ctx context.Context, n *big.Int, timeout time.Duration) ([]*big.Int, error) {
	if n.BitLen() > l.maxBits() || utils.TestPrimality(n) != utils.Composite {
		return nil, nil
	}
	ctx, cancel := withBudget(ctx, timeout)
	defer cancel()

	var found []*big.Int
	pending := []*big.Int{new(big.Int).Set(n)}
	for len(pending) > 0 {
		d := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		switch {
		case utils.IsOne(d):
			continue
		case utils.TestPrimality(d) != utils.Composite:
			found = append(found, d)
			continue
		case d.Bit(0) == 0:
			found = append(found, big.NewInt(2))
			pending = append(pending, new(big.Int).Rsh(d, 1))
			continue
		}
		e, err := libraryFactor(ctx, d)
		if err != nil {
			return found, err
		}
		if !properDivisor(e, d) {
			// Leave it for the caller rather than report a composite.
			continue
		}
		pending = append(pending, e, new(big.Int).Quo(d, e))
	}
	return found, nil
}

// libraryFactor runs one lattigo search on an odd composite and waits for it
// or for ctx.
func libraryFactor(ctx context.Context, n *big.Int) (*big.Int, error) {
	out := make(chan *big.Int, 1)
	arg := new(big.Int).Set(n)
	go func() { out <- factorization.GetFactorECM(arg) }()
	select {
	case d := <-out:
		return d, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}
