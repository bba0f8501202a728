package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// detEpsilon is the determinant magnitude below which the joint normal
// equations are considered singular (collinear or constant predictors).
const detEpsilon = 1e-9

// RegressionModel holds the fitted sensitivity coefficients: seasonal
// streamflow percent change per unit change of each predictor's percent.
// Coefficients have no required sign or bound. A model is re-derivable from
// the dataset alone and carries no user-input state.
type RegressionModel struct {
	SWE              float64 `json:"swe"`
	FallSoilMoisture float64 `json:"fall_soil_moisture"`
	SpringPrecip     float64 `json:"spring_precip"`
	Strategy         string  `json:"strategy"`
}

// FitStrategy fits a RegressionModel from a normalized dataset. Strategies
// are alternatives, never mixed within one process.
type FitStrategy interface {
	Name() string
	Fit(ds *Dataset) (RegressionModel, error)
}

// StrategyByName maps a config value to its strategy.
func StrategyByName(name string) (FitStrategy, bool) {
	switch name {
	case "independent":
		return IndependentSlopes{}, true
	case "joint":
		return JointLeastSquares{}, true
	default:
		return nil, false
	}
}

// IndependentSlopes estimates each predictor's sensitivity in isolation as
// Σ(x·y)/Σ(x²) over deviation-coded series, ignoring cross-correlation
// between predictors. A constant predictor (zero denominator) gets a zero
// coefficient. This fit cannot fail.
type IndependentSlopes struct{}

func (IndependentSlopes) Name() string { return "independent" }

func (s IndependentSlopes) Fit(ds *Dataset) (RegressionModel, error) {
	return RegressionModel{
		SWE:              independentSlope(ds.Records, func(r YearRecord) float64 { return r.SWEPct }),
		FallSoilMoisture: independentSlope(ds.Records, func(r YearRecord) float64 { return r.FallSoilMoisturePct }),
		SpringPrecip:     independentSlope(ds.Records, func(r YearRecord) float64 { return r.SpringPrecipPct }),
		Strategy:         s.Name(),
	}, nil
}

func independentSlope(records []YearRecord, predictor func(YearRecord) float64) float64 {
	var sumXY, sumXX float64
	for _, r := range records {
		x := predictor(r) - 100
		y := r.SeasonalStreamflowPct - 100
		sumXY += x * y
		sumXX += x * x
	}
	if sumXX == 0 {
		return 0
	}
	return sumXY / sumXX
}

// JointLeastSquares solves the full three-predictor least-squares problem
// through the 3x3 normal equations XᵗX·c = Xᵗy. When the determinant of
// XᵗX is below detEpsilon the predictors are collinear or degenerate and
// Fit reports [ErrDegenerateFit]; callers keep their previous coefficients.
type JointLeastSquares struct{}

func (JointLeastSquares) Name() string { return "joint" }

func (s JointLeastSquares) Fit(ds *Dataset) (RegressionModel, error) {
	xtx := mat.NewDense(3, 3, nil)
	xty := mat.NewVecDense(3, nil)

	for _, r := range ds.Records {
		x := [3]float64{
			r.SWEPct - 100,
			r.FallSoilMoisturePct - 100,
			r.SpringPrecipPct - 100,
		}
		y := r.SeasonalStreamflowPct - 100
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				xtx.Set(i, j, xtx.At(i, j)+x[i]*x[j])
			}
			xty.SetVec(i, xty.AtVec(i)+x[i]*y)
		}
	}

	det := mat.Det(xtx)
	if math.Abs(det) < detEpsilon {
		return RegressionModel{}, fmt.Errorf("%w: |det(XᵗX)| = %g", ErrDegenerateFit, math.Abs(det))
	}

	var inv mat.Dense
	if err := inv.Inverse(xtx); err != nil {
		return RegressionModel{}, fmt.Errorf("%w: %v", ErrDegenerateFit, err)
	}

	var coeffs mat.VecDense
	coeffs.MulVec(&inv, xty)

	return RegressionModel{
		SWE:              coeffs.AtVec(0),
		FallSoilMoisture: coeffs.AtVec(1),
		SpringPrecip:     coeffs.AtVec(2),
		Strategy:         s.Name(),
	}, nil
}
