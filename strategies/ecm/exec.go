package ecm

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"io/fs"
	"log"
	"math/big"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
)

// execCommand is swapped out by tests to run a fake GMP-ECM.
var execCommand = exec.CommandContext

// Finding is one factor line parsed from GMP-ECM output.
type Finding struct {
	Value *big.Int
	Label string // "prime", "probable prime" or "composite"
}

// foundPattern matches lines such as
//
//	Found prime factor of 22 digits: 1223766773213688200839
//	Found probable prime factor of 41 digits: ...
var foundPattern = regexp.MustCompile(`(?i)\bfound\s+(probable\s+prime|prime|composite)\s+factor\b[^:]*:\s*(\d+)`)

// ParseOutput extracts every reported factor from GMP-ECM output.
// Lines that do not report a factor are ignored.
func ParseOutput(r io.Reader) []Finding {
	var out []Finding
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		m := foundPattern.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		v, ok := new(big.Int).SetString(m[2], 10)
		if !ok || v.Sign() <= 0 {
			continue
		}
		label := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
		out = append(out, Finding{Value: v, Label: label})
	}
	return out
}

// Exec runs the GMP-ECM binary as a child process. The cofactor is written to
// its standard input in decimal and factor lines are parsed from its output.
type Exec struct {
	Binary string
	Curves int
	B1     uint64
	Logger *log.Logger
}

// NewExec builds an Exec provider from the large-factor parameters.
func NewExec(params mprsa.LargeFactorParams, logger *log.Logger) *Exec {
	return &Exec{
		Binary: params.Binary,
		Curves: params.Curves,
		B1:     params.B1,
		Logger: logger,
	}
}

func (e *Exec) Name() string { return "gmp-ecm" }

func (e *Exec) args() []string {
	curves := e.Curves
	if curves <= 0 {
		curves = 1
	}
	b1 := e.B1
	if b1 == 0 {
		b1 = 11000
	}
	return []string{"-c", strconv.Itoa(curves), strconv.FormatUint(b1, 10)}
}

func (e *Exec) logf(format string, v ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, v...)
	}
}

func (e *Exec) FindFactors(ctx context.Context, n *big.Int, timeout time.Duration) ([]*big.Int, error) {
	binary := e.Binary
	if binary == "" {
		binary = "ecm"
	}
	ctx, cancel := withBudget(ctx, timeout)
	defer cancel()

	cmd := execCommand(ctx, binary, e.args()...)
	cmd.Stdin = strings.NewReader(n.String() + "\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	e.logf("ecm: running %s %s on %d-digit cofactor (budget %v)",
		binary, strings.Join(e.args(), " "), len(n.String()), timeout)
	start := time.Now()
	err := cmd.Run()

	var values []*big.Int
	for _, f := range ParseOutput(&out) {
		e.logf("ecm: found %s factor %s", f.Label, f.Value)
		values = append(values, f.Value)
	}

	switch {
	case err == nil:
		return values, nil
	case errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist):
		return nil, errors.Wrap(ErrUnavailable, binary)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return values, errors.Wrapf(ErrTimeout, "after %v", time.Since(start).Round(time.Millisecond))
	}

	// GMP-ECM reports success through non-zero exit codes.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(values) > 0 {
		return values, nil
	}
	return values, errors.Wrap(err, "run "+binary)
}
