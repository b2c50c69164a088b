package service

import "math"

const (
	irrInitialGuess  = 0.10
	irrNewtonIters   = 50
	irrTolerance     = 1e-7
	irrBracketLow    = -0.99
	irrBracketHigh   = 10.0
	irrBracketSteps  = 200
	irrBisectionIter = 100
	// derivativeEpsilon marks the NPV derivative as numerically degenerate.
	derivativeEpsilon = 1e-12
)

// NPV computes the net present value of flows at the given discount rate,
// with flows[t] discounted by (1+rate)^t.
func NPV(rate float64, flows []float64) float64 {
	var npv float64
	for t, cf := range flows {
		npv += cf / math.Pow(1+rate, float64(t))
	}
	return npv
}

func npvDerivative(rate float64, flows []float64) float64 {
	var d float64
	for t := 1; t < len(flows); t++ {
		d -= float64(t) * flows[t] / math.Pow(1+rate, float64(t+1))
	}
	return d
}

// SolveIRR root-finds the internal rate of return of a cash-flow vector as a
// fractional annual rate. Newton-Raphson from a fixed initial guess; if the
// derivative degenerates or the iteration budget runs out, it falls back to
// bisection over a wide bracket. Returns NaN when no root can be bracketed;
// callers must exclude NaN from aggregation.
func SolveIRR(flows []float64) float64 {
	rate := irrInitialGuess
	for i := 0; i < irrNewtonIters; i++ {
		f := NPV(rate, flows)
		d := npvDerivative(rate, flows)
		if math.Abs(d) < derivativeEpsilon {
			break
		}
		next := rate - f/d
		if next <= irrBracketLow || math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		if math.Abs(next-rate) < irrTolerance {
			return next
		}
		rate = next
	}
	return bisectIRR(flows)
}

// IRRDefined reports whether a solver output is a usable rate.
func IRRDefined(irr float64) bool {
	return !math.IsNaN(irr)
}

// bisectIRR searches [irrBracketLow, irrBracketHigh] for a sign change and
// bisects it. NaN when no bracket exists.
func bisectIRR(flows []float64) float64 {
	step := (irrBracketHigh - irrBracketLow) / irrBracketSteps
	lo := irrBracketLow
	flo := NPV(lo, flows)
	var hi, fhi float64

	found := false
	for i := 1; i <= irrBracketSteps; i++ {
		hi = irrBracketLow + float64(i)*step
		fhi = NPV(hi, flows)
		if flo == 0 {
			return lo
		}
		if flo*fhi < 0 {
			found = true
			break
		}
		lo, flo = hi, fhi
	}
	if !found {
		return math.NaN()
	}

	for i := 0; i < irrBisectionIter; i++ {
		mid := (lo + hi) / 2
		fmid := NPV(mid, flows)
		if math.Abs(fmid) < irrTolerance || (hi-lo)/2 < irrTolerance {
			return mid
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return (lo + hi) / 2
}

// InferIRRSign classifies a cash-flow vector whose IRR could not be solved.
// With exactly one sign change the IRR's sign matches the sign of the
// undiscounted sum; otherwise the sign is unknowable and 0 is returned.
func InferIRRSign(flows []float64) int {
	changes := 0
	prev := 0
	for _, cf := range flows {
		if cf == 0 {
			continue
		}
		sign := 1
		if cf < 0 {
			sign = -1
		}
		if prev != 0 && sign != prev {
			changes++
		}
		prev = sign
	}
	if changes != 1 {
		return 0
	}

	var total float64
	for _, cf := range flows {
		total += cf
	}
	switch {
	case total < 0:
		return -1
	case total > 0:
		return 1
	default:
		return 0
	}
}

// BreakevenYear returns the first fractional year at which the cumulative
// cash flow reaches zero, linearly interpolated between the last negative
// and first non-negative cumulative values. 0.0 when the first entry is
// already non-negative; +Inf when the cumulative never recovers.
func BreakevenYear(flows []float64) float64 {
	if len(flows) == 0 {
		return math.Inf(1)
	}
	cum := flows[0]
	if cum >= 0 {
		return 0.0
	}
	for t := 1; t < len(flows); t++ {
		next := cum + flows[t]
		if next >= 0 {
			return float64(t-1) + (-cum)/(next-cum)
		}
		cum = next
	}
	return math.Inf(1)
}
