package core

import (
	"strings"
	"testing"
	"time"

	mprsa "github.com/BackendStack21/mprsa-go"
)

func TestGetParams(t *testing.T) {
	for _, profile := range []mprsa.Profile{mprsa.ProfileQuick, mprsa.ProfileStandard, mprsa.ProfileThorough} {
		params, err := GetParams(profile)
		if err != nil {
			t.Fatalf("GetParams(%s) failed: %v", profile, err)
		}
		if params.Profile != profile {
			t.Errorf("Expected %s, got %s", profile, params.Profile)
		}
		if err := ValidateParams(params); err != nil {
			t.Errorf("ValidateParams(%s) failed: %v", profile, err)
		}
	}

	// Empty profile falls back to standard
	params, err := GetParams("")
	if err != nil || params.Profile != mprsa.ProfileStandard {
		t.Errorf("GetParams(\"\") should return standard, got %s (%v)", params.Profile, err)
	}

	if _, err := GetParams("INVALID"); err == nil {
		t.Error("GetParams(INVALID) should fail")
	}
}

func TestStandardParamsMatchSolver(t *testing.T) {
	p := DefaultParams()
	if p.Rho.MaxIterations != 100000 {
		t.Errorf("rho iterations = %d, want 100000", p.Rho.MaxIterations)
	}
	if p.Trial.Bound != 100000 {
		t.Errorf("trial bound = %d, want 100000", p.Trial.Bound)
	}
	if p.Large.Curves != 200 || p.Large.B1 != 100000000 {
		t.Errorf("ecm curves/B1 = %d/%d, want 200/100000000", p.Large.Curves, p.Large.B1)
	}
	if p.Large.Timeout() != 10*time.Minute {
		t.Errorf("timeout = %v, want 10m", p.Large.Timeout())
	}
	if p.Decode.MaxSkip != 50 {
		t.Errorf("decode skip = %d, want 50", p.Decode.MaxSkip)
	}
}

func TestValidateParams(t *testing.T) {
	params := DefaultParams()

	invalid := params
	invalid.Rho.MaxIterations = 0
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject zero rho iterations")
	}

	invalid = params
	invalid.Rho.Retries = -1
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject negative retries")
	}

	invalid = params
	invalid.Trial.Bound = 1
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject trial bound 1")
	}

	invalid = params
	invalid.Large.TimeoutSecs = -5
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject negative timeout")
	}

	invalid = params
	invalid.Large.LocalB1 = 1 << 30
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject huge local B1")
	}

	invalid = params
	invalid.Decode.PrintableRatio = 1.5
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject ratio > 1")
	}

	invalid = params
	invalid.Decode.MaxSkip = -1
	if err := ValidateParams(invalid); err == nil {
		t.Error("ValidateParams should reject negative skip")
	}
}

func TestLoadParams(t *testing.T) {
	params, err := LoadParams(strings.NewReader(`{"trial": {"bound": 5000}}`))
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}
	if params.Trial.Bound != 5000 {
		t.Errorf("trial bound = %d, want 5000", params.Trial.Bound)
	}
	if params.Rho.MaxIterations != StandardParams.Rho.MaxIterations {
		t.Error("unset fields should keep standard values")
	}

	params, err = LoadParams(strings.NewReader(`{"profile": "quick", "rho": {"retries": 5}}`))
	if err != nil {
		t.Fatalf("LoadParams failed: %v", err)
	}
	if params.Profile != mprsa.ProfileQuick || params.Rho.Retries != 5 {
		t.Errorf("unexpected params: %+v", params.Rho)
	}
	if params.Rho.MaxIterations != QuickParams.Rho.MaxIterations {
		t.Error("unset fields should keep quick values")
	}

	bad := []string{
		`not json`,
		`{"profile": "nope"}`,
		`{"unknown_field": 1}`,
		`{"trial": {"bound": 0}}`,
	}
	for _, doc := range bad {
		if _, err := LoadParams(strings.NewReader(doc)); err == nil {
			t.Errorf("LoadParams(%s) should fail", doc)
		}
	}
}
