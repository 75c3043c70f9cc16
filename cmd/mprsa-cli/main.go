// Package main provides the mprsa-cli command line interface for recovering
// plaintexts from weak multi-prime RSA moduli.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/core"
	"github.com/BackendStack21/mprsa-go/decode"
	"github.com/BackendStack21/mprsa-go/factorize"
	"github.com/BackendStack21/mprsa-go/keygen"
	"github.com/BackendStack21/mprsa-go/recovery"
	"github.com/BackendStack21/mprsa-go/solve"
	"github.com/BackendStack21/mprsa-go/utils"
)

const (
	version = "0.4.0"
	appName = "mprsa-cli"
)

// OutputFormat selects how results are printed.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	Params       mprsa.Params
	OutputFormat OutputFormat
	OutputFile   string
	Verbose      bool
	Timing       bool
}

// FactorExport represents one exported factor
type FactorExport struct {
	Value  string `json:"value"`
	Bits   int    `json:"bits"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// FactorizationExport represents an exported factorization report
type FactorizationExport struct {
	Modulus     string         `json:"modulus"`
	Bits        int            `json:"bits"`
	Digits      int            `json:"digits"`
	Fingerprint string         `json:"fingerprint"`
	Complete    bool           `json:"complete"`
	Provisional bool           `json:"provisional"`
	Factors     []FactorExport `json:"factors"`
}

// KeyExport represents an exported multi-prime key. D and Primes are empty
// for public keys.
type KeyExport struct {
	N         string   `json:"n"`
	E         string   `json:"e"`
	D         string   `json:"d,omitempty"`
	Primes    []string `json:"primes,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// CiphertextExport represents an exported challenge: public key and ciphertext
type CiphertextExport struct {
	N            string   `json:"n"`
	E            string   `json:"e"`
	C            string   `json:"c"`
	KnownFactors []string `json:"known_factors,omitempty"`
}

// SolveExport represents an exported end-to-end result
type SolveExport struct {
	Factorization FactorizationExport `json:"factorization"`
	D             string              `json:"d,omitempty"`
	Plaintext     *decode.Result      `json:"plaintext,omitempty"`
	Warnings      []string            `json:"warnings,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("mprsa library version %s\n", mprsa.Version)
	case "factor":
		handleFactor(os.Args[2:])
	case "solve":
		handleSolve(os.Args[2:])
	case "decrypt":
		handleDecrypt(os.Args[2:])
	case "keygen":
		handleKeygen(os.Args[2:])
	case "encrypt":
		handleEncrypt(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - weak multi-prime RSA recovery CLI

USAGE:
    %s <COMMAND> [OPTIONS]

COMMANDS:
    factor      Factor a modulus and report the factor multiset
    solve       Factor N, recover d and decrypt a ciphertext
    decrypt     Decrypt a ciphertext with a key file
    keygen      Generate a deliberately weak multi-prime key
    encrypt     Encrypt a message under a key file
    version     Show version information
    help        Show this help message

COMMON OPTIONS:
    --profile, -p <name>        quick, standard (default) or thorough
    --params <file>             JSON parameter overlay
    --ecm-binary <path>         GMP-ECM executable (default "ecm")
    --timeout <seconds>         Budget for the large-factor finder
    --known-factors <a,b,...>   Factors found by earlier runs
    --format, -f <fmt>          text (default) or json
    --output, -o <file>         Write output to file
    --verbose                   Log progress to stderr
    --timing, -t                Report elapsed time

EXAMPLES:
    # Factor a modulus
    %s factor --modulus 8051

    # Recover a plaintext
    %s solve --modulus <N> --exponent 65537 --ciphertext <c>

    # Recover a plaintext from a challenge file
    %s solve --input challenge.json --format json

    # Generate a weak key and a challenge for it
    %s keygen --small 13,653,2791 --bits 200 --output key.json
    %s encrypt --key key.json --message "HTB{...}" --output challenge.json

    # Decrypt with a known key
    %s decrypt --key key.json --ciphertext <c>
`, appName, appName, appName, appName, appName, appName, appName, appName)
}

// ============================================================================
// Commands
// ============================================================================

func handleFactor(args []string) {
	config := parseConfig(args)
	n := requireInt(args, "--modulus", "-n")

	orch, err := factorize.New(config.Params, factorize.WithLogger(newLogger(config)),
		factorize.WithKnownFactors(parseIntList(getArg(args, "--known-factors", "-k"))))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring pipeline: %v\n", err)
		os.Exit(1)
	}

	start := time.Now()
	fz, err := orch.Factorize(context.Background(), n)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error factoring: %v\n", err)
		os.Exit(1)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Factorization took: %v\n", elapsed)
	}

	export := exportFactorization(fz)
	if config.OutputFormat == FormatJSON {
		writeJSON(export, config.OutputFile)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "N (%d bits, %d digits) fingerprint %s\n", export.Bits, export.Digits, export.Fingerprint)
	for i, f := range export.Factors {
		fmt.Fprintf(&sb, "  [%d] %s (%d bits, %s, %s)\n", i+1, f.Value, f.Bits, f.Kind, f.Source)
	}
	switch {
	case export.Complete:
		sb.WriteString("factorization complete\n")
	case fz.HasComposite():
		sb.WriteString("WARNING: factorization incomplete, a composite remainder is listed\n")
	case export.Provisional:
		sb.WriteString("WARNING: factorization provisional, some factors are only probable primes\n")
	}
	writeOutput([]byte(strings.TrimSuffix(sb.String(), "\n")), config.OutputFile)
}

func handleSolve(args []string) {
	config := parseConfig(args)
	in := readChallenge(args)
	in.KnownFactors = append(in.KnownFactors, parseIntList(getArg(args, "--known-factors", "-k"))...)

	opts := []solve.Option{solve.WithLogger(newLogger(config))}
	if hasFlag(args, "--allow-composite", "") {
		opts = append(opts, solve.AllowComposite())
	}

	start := time.Now()
	res, err := solve.Solve(context.Background(), in, config.Params, opts...)
	elapsed := time.Since(start)
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Solve took: %v\n", elapsed)
	}
	if err != nil {
		if res != nil && res.Factorization != nil {
			fmt.Fprintf(os.Stderr, "Factors found: %s\n", strings.Join(factorStrings(res.Factorization), " * "))
		}
		fmt.Fprintf(os.Stderr, "Error solving: %v\n", err)
		os.Exit(1)
	}

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	if config.OutputFormat == FormatJSON {
		export := SolveExport{
			Factorization: exportFactorization(res.Factorization),
			D:             res.Key.D.String(),
			Plaintext:     &res.Decoded,
			Warnings:      res.Warnings,
		}
		writeJSON(export, config.OutputFile)
		return
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Decoded via %s (skipped %d bytes), hex %s\n", res.Decoded.Method, res.Decoded.Skipped, res.Decoded.Hex)
	}
	writeOutput([]byte(res.Decoded.Text), config.OutputFile)
}

func handleDecrypt(args []string) {
	config := parseConfig(args)
	keyFile := getArg(args, "--key", "")
	if keyFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --key is required\n")
		os.Exit(1)
	}
	key, err := loadKey(keyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading key: %v\n", err)
		os.Exit(1)
	}
	if key.D == nil {
		fmt.Fprintf(os.Stderr, "Error: key file has no private exponent\n")
		os.Exit(1)
	}
	c := requireInt(args, "--ciphertext", "-c")

	m, err := recovery.Decrypt(key, c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decrypting: %v\n", err)
		os.Exit(1)
	}
	res := decode.Decode(m, config.Params.Decode)
	if config.OutputFormat == FormatJSON {
		writeJSON(res, config.OutputFile)
		return
	}
	writeOutput([]byte(res.Text), config.OutputFile)
}

func handleKeygen(args []string) {
	config := parseConfig(args)
	spec := keygen.DefaultSpec

	if s := getArg(args, "--small", "-s"); s != "" {
		spec.SmallPrimes = nil
		for _, v := range parseIntList(s) {
			if !v.IsInt64() {
				fmt.Fprintf(os.Stderr, "Error: small prime %s too large\n", v)
				os.Exit(1)
			}
			spec.SmallPrimes = append(spec.SmallPrimes, v.Int64())
		}
	}
	if s := getArg(args, "--bits", "-b"); s != "" {
		spec.PrimeBits = nil
		for _, part := range strings.Split(s, ",") {
			bits, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid prime size '%s'\n", part)
				os.Exit(1)
			}
			spec.PrimeBits = append(spec.PrimeBits, bits)
		}
	}
	if s := getArg(args, "--exponent", "-e"); s != "" {
		e, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid exponent '%s'\n", s)
			os.Exit(1)
		}
		spec.E = e
	}

	start := time.Now()
	key, err := keygen.Generate(spec)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
		os.Exit(1)
	}
	if config.Timing {
		fmt.Fprintf(os.Stderr, "Key generation took: %v\n", elapsed)
	}

	export := KeyExport{
		N:         key.N.String(),
		E:         key.E.String(),
		D:         key.D.String(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, p := range key.Primes {
		export.Primes = append(export.Primes, p.String())
	}
	writeJSON(export, config.OutputFile)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Generated %d-bit modulus with %d primes\n", key.N.BitLen(), len(key.Primes))
	}
}

func handleEncrypt(args []string) {
	config := parseConfig(args)
	message := getArg(args, "--message", "-m")
	inputFile := getArg(args, "--input", "-i")

	var pub mprsa.PublicKey
	if keyFile := getArg(args, "--key", ""); keyFile != "" {
		key, err := loadKey(keyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading key: %v\n", err)
			os.Exit(1)
		}
		pub = key.PublicKey
	} else {
		pub.N = requireInt(args, "--modulus", "-n")
		pub.E = optionalExponent(args)
	}

	// Get message from argument or file
	var msgBytes []byte
	if message != "" {
		msgBytes = []byte(message)
	} else if inputFile != "" {
		var err error
		msgBytes, err = os.ReadFile(inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		var err error
		msgBytes, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
			os.Exit(1)
		}
	}

	c, err := recovery.Encrypt(&pub, new(big.Int).SetBytes(msgBytes))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encrypting: %v\n", err)
		os.Exit(1)
	}
	writeJSON(CiphertextExport{N: pub.N.String(), E: pub.E.String(), C: c.String()}, config.OutputFile)
}

// ============================================================================
// Helpers
// ============================================================================

func parseConfig(args []string) CLIConfig {
	config := CLIConfig{OutputFormat: FormatText}

	profile := mprsa.Profile(getArg(args, "--profile", "-p"))
	params, err := core.GetParams(profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid profile '%s'. Must be one of: quick, standard, thorough\n", profile)
		os.Exit(1)
	}

	if paramsFile := getArg(args, "--params", ""); paramsFile != "" {
		f, err := os.Open(paramsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening params file: %v\n", err)
			os.Exit(1)
		}
		params, err = core.LoadParams(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading params: %v\n", err)
			os.Exit(1)
		}
	}

	if binary := getArg(args, "--ecm-binary", ""); binary != "" {
		params.Large.Binary = binary
	}
	if timeout := getArg(args, "--timeout", ""); timeout != "" {
		secs, err := strconv.Atoi(timeout)
		if err != nil || secs < 0 {
			fmt.Fprintf(os.Stderr, "Error: invalid timeout '%s'\n", timeout)
			os.Exit(1)
		}
		params.Large.TimeoutSecs = secs
	}
	if err := core.ValidateParams(params); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	config.Params = params

	format := getArg(args, "--format", "-f")
	switch format {
	case "text":
		config.OutputFormat = FormatText
	case "json":
		config.OutputFormat = FormatJSON
	case "":
		// No format specified, use default
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid format '%s'. Must be one of: text, json\n", format)
		os.Exit(1)
	}

	config.OutputFile = getArg(args, "--output", "-o")
	config.Verbose = hasFlag(args, "--verbose", "")
	config.Timing = hasFlag(args, "--timing", "-t")

	return config
}

func getArg(args []string, long, short string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == long || (short != "" && args[i] == short) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, long, short string) bool {
	for _, arg := range args {
		if arg == long || (short != "" && arg == short) {
			return true
		}
	}
	return false
}

func newLogger(config CLIConfig) *log.Logger {
	if !config.Verbose {
		return nil
	}
	return log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
}

func requireInt(args []string, long, short string) *big.Int {
	s := getArg(args, long, short)
	if s == "" {
		fmt.Fprintf(os.Stderr, "Error: %s is required\n", long)
		os.Exit(1)
	}
	v, err := utils.ParseInt(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", long, err)
		os.Exit(1)
	}
	return v
}

func optionalExponent(args []string) *big.Int {
	if getArg(args, "--exponent", "-e") == "" {
		return big.NewInt(mprsa.DefaultExponent)
	}
	return requireInt(args, "--exponent", "-e")
}

func parseIntList(s string) []*big.Int {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []*big.Int
	for _, part := range strings.Split(s, ",") {
		v, err := utils.ParseInt(part)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing integer list: %v\n", err)
			os.Exit(1)
		}
		out = append(out, v)
	}
	return out
}

// readChallenge takes N, e and c from a challenge file or from flags.
func readChallenge(args []string) solve.Input {
	inputFile := getArg(args, "--input", "-i")
	if inputFile == "" {
		return solve.Input{
			N: requireInt(args, "--modulus", "-n"),
			E: optionalExponent(args),
			C: requireInt(args, "--ciphertext", "-c"),
		}
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		os.Exit(1)
	}
	var export CiphertextExport
	if err := json.Unmarshal(data, &export); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing input file: %v\n", err)
		os.Exit(1)
	}
	if export.E == "" {
		export.E = strconv.Itoa(mprsa.DefaultExponent)
	}

	in := solve.Input{KnownFactors: parseIntList(strings.Join(export.KnownFactors, ","))}
	for _, field := range []struct {
		name string
		src  string
		dst  **big.Int
	}{{"n", export.N, &in.N}, {"e", export.E, &in.E}, {"c", export.C, &in.C}} {
		v, err := utils.ParseInt(field.src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s in input file: %v\n", field.name, err)
			os.Exit(1)
		}
		*field.dst = v
	}
	return in
}

func loadKey(filename string) (*mprsa.PrivateKey, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read key file")
	}
	var export KeyExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, errors.Wrap(err, "parse key file")
	}

	key := &mprsa.PrivateKey{}
	if key.N, err = utils.ParseInt(export.N); err != nil {
		return nil, errors.Wrap(err, "n")
	}
	if key.E, err = utils.ParseInt(export.E); err != nil {
		return nil, errors.Wrap(err, "e")
	}
	if export.D != "" {
		if key.D, err = utils.ParseInt(export.D); err != nil {
			return nil, errors.Wrap(err, "d")
		}
	}
	return key, nil
}

func exportFactorization(fz *mprsa.Factorization) FactorizationExport {
	export := FactorizationExport{
		Modulus:     fz.Modulus.String(),
		Bits:        fz.Modulus.BitLen(),
		Digits:      len(fz.Modulus.String()),
		Fingerprint: fz.Fingerprint,
		Complete:    fz.Complete(),
		Provisional: fz.Provisional(),
	}
	for _, f := range fz.Factors {
		export.Factors = append(export.Factors, FactorExport{
			Value:  f.Value.String(),
			Bits:   f.Value.BitLen(),
			Kind:   f.Kind.String(),
			Source: string(f.Source),
		})
	}
	return export
}

func factorStrings(fz *mprsa.Factorization) []string {
	out := make([]string, len(fz.Factors))
	for i, f := range fz.Factors {
		out[i] = f.Value.String()
	}
	return out
}

func writeJSON(v interface{}, filename string) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	writeOutput(output, filename)
}

func writeOutput(data []byte, filename string) {
	if filename != "" {
		// Key files carry private exponents: owner read-write only.
		f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()

		if _, err := f.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}

		if err := os.Chmod(filename, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting file permissions: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println(string(data))
	}
}
