package stackverifier

import (
	"github.com/wippyai/stack-verifier/diag"
	"github.com/wippyai/stack-verifier/verify"
)

// Source is an instruction stream that carries its own listing and verifier
// options. program.Program and wasmfx.Func are Sources.
type Source interface {
	verify.Provider
	Listing() []string
	Options() verify.Options
}

// Verify runs the verifier once and returns the raw result.
func Verify(p verify.Provider, opts verify.Options) (verify.Result, error) {
	res, _, err := verify.Verify(p, opts)
	return res, err
}

// Check verifies p and reports a finding as a *diag.Error naming method.
// Operational problems (a nil provider, a provider error, a bad branch
// target) are returned as *errors.Error.
func Check(method string, p verify.Provider, listing []string, opts verify.Options) error {
	res, err := Verify(p, opts)
	if err != nil {
		return err
	}
	if verify.IsSuccess(res) {
		return nil
	}
	return diag.NewError(method, res, listing)
}

// CheckSource is Check for a Source.
func CheckSource(method string, src Source) error {
	return Check(method, src, src.Listing(), src.Options())
}
