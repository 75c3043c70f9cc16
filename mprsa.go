package mprsa

// Version of the mprsa Go implementation.
const Version = "0.4.0"

// DefaultExponent is the public exponent assumed when none is given.
const DefaultExponent = 65537

// API summary:
//
// Factorization:
//   - trial.Divide(n, bound) - Strip every prime factor up to bound
//   - rho.FindWithRetries(n, params) - Peel one factor with Pollard's rho
//   - ecm.Exec / ecm.Lenstra / ecm.Library / ecm.Known / ecm.Noop - Large-factor providers
//   - factorize.New(params, opts...).Factorize(ctx, n) - Full pipeline
//
// Key recovery and decryption:
//   - recovery.RecoverKey(fz, e) - phi and d from a factor multiset
//   - recovery.Decrypt(key, c) - m = c^d mod N
//   - decode.Decode(m, params) - Best-effort text from m
//
// End to end:
//   - solve.Solve(ctx, input, params, opts...) - N, e, c to plaintext
//
// Parameters:
//   - core.GetParams(profile) - Parameters for a profile
//   - core.LoadParams(r) - JSON overlay on the standard profile
