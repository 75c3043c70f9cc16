// Package core provides parameter profiles and validation for mprsa.
package core

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	mprsa "github.com/BackendStack21/mprsa-go"
	"github.com/BackendStack21/mprsa-go/utils"
)

// QuickParams is the parameter set for toy moduli and tests.
var QuickParams = mprsa.Params{
	Profile: mprsa.ProfileQuick,
	Rho: mprsa.RhoParams{
		MaxIterations: 10000,
		Retries:       3,
	},
	Trial: mprsa.TrialParams{
		Bound: 10000,
	},
	Large: mprsa.LargeFactorParams{
		ThresholdBits: 80,
		TimeoutSecs:   10,
		Binary:        "ecm",
		Curves:        20,
		B1:            11000,
		LocalCurves:   40,
		LocalB1:       2000,
		Sweeps:        4,
	},
	Decode: mprsa.DecodeParams{
		MaxSkip:        50,
		PrintableRatio: 0.8,
	},
}

// StandardParams is the default parameter set.
var StandardParams = mprsa.Params{
	Profile: mprsa.ProfileStandard,
	Rho: mprsa.RhoParams{
		MaxIterations: 100000,
		Retries:       3,
	},
	Trial: mprsa.TrialParams{
		Bound: 100000,
	},
	Large: mprsa.LargeFactorParams{
		ThresholdBits: 80,
		TimeoutSecs:   600,
		Binary:        "ecm",
		Curves:        200,
		B1:            100000000,
		LocalCurves:   200,
		LocalB1:       50000,
		Sweeps:        8,
	},
	Decode: mprsa.DecodeParams{
		MaxSkip:        50,
		PrintableRatio: 0.8,
	},
}

// ThoroughParams spends considerably more time before giving up.
var ThoroughParams = mprsa.Params{
	Profile: mprsa.ProfileThorough,
	Rho: mprsa.RhoParams{
		MaxIterations: 1000000,
		Retries:       8,
	},
	Trial: mprsa.TrialParams{
		Bound: 1000000,
	},
	Large: mprsa.LargeFactorParams{
		ThresholdBits: 96,
		TimeoutSecs:   3600,
		Binary:        "ecm",
		Curves:        1000,
		B1:            100000000,
		LocalCurves:   1000,
		LocalB1:       250000,
		Sweeps:        16,
	},
	Decode: mprsa.DecodeParams{
		MaxSkip:        50,
		PrintableRatio: 0.8,
	},
}

// GetParams returns the parameter set for the given profile.
func GetParams(profile mprsa.Profile) (mprsa.Params, error) {
	switch profile {
	case mprsa.ProfileQuick:
		return QuickParams, nil
	case mprsa.ProfileStandard, "":
		return StandardParams, nil
	case mprsa.ProfileThorough:
		return ThoroughParams, nil
	default:
		return mprsa.Params{}, errors.Errorf("unknown profile: %s", profile)
	}
}

// DefaultParams returns the standard parameter set.
func DefaultParams() mprsa.Params {
	return StandardParams
}

// ValidateParams checks that every budget is positive and bounded.
func ValidateParams(params mprsa.Params) error {
	if params.Rho.MaxIterations <= 0 || params.Rho.MaxIterations > utils.MaxRhoIterations {
		return errors.Errorf("rho iterations must be in (0, %d]", utils.MaxRhoIterations)
	}
	if params.Rho.Retries < 0 || params.Rho.Retries > utils.MaxRhoRetries {
		return errors.Errorf("rho retries must be in [0, %d]", utils.MaxRhoRetries)
	}
	if params.Trial.Bound < 2 || params.Trial.Bound > utils.MaxTrialBound {
		return errors.Errorf("trial bound must be in [2, %d]", int64(utils.MaxTrialBound))
	}
	if params.Large.ThresholdBits < 0 {
		return errors.New("large-factor threshold cannot be negative")
	}
	if params.Large.TimeoutSecs < 0 {
		return errors.New("large-factor timeout cannot be negative")
	}
	if params.Large.Curves < 0 || params.Large.LocalCurves < 0 || params.Large.Sweeps < 0 {
		return errors.New("curve and sweep counts cannot be negative")
	}
	if params.Large.LocalB1 > utils.MaxECMB1 {
		return errors.Errorf("local ECM bound must be at most %d", utils.MaxECMB1)
	}
	if params.Large.LocalCurves > 0 && params.Large.LocalB1 < 2 {
		return errors.New("local ECM bound must be at least 2")
	}
	if err := utils.CheckLength(params.Decode.MaxSkip, utils.MaxDecodeSkip); err != nil {
		return errors.Wrap(err, "decode skip")
	}
	if params.Decode.PrintableRatio < 0 || params.Decode.PrintableRatio > 1 {
		return errors.New("printable ratio must be in [0, 1]")
	}
	return nil
}

// LoadParams reads a JSON parameter overlay. Fields missing from the document
// keep the values of the profile it names (standard when absent).
func LoadParams(r io.Reader) (mprsa.Params, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return mprsa.Params{}, errors.Wrap(err, "read params")
	}

	var head struct {
		Profile mprsa.Profile `json:"profile"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return mprsa.Params{}, errors.Wrap(err, "parse params")
	}
	params, err := GetParams(head.Profile)
	if err != nil {
		return mprsa.Params{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&params); err != nil {
		return mprsa.Params{}, errors.Wrap(err, "parse params")
	}
	if err := ValidateParams(params); err != nil {
		return mprsa.Params{}, err
	}
	return params, nil
}
