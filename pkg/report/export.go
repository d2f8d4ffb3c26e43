// Package report exports analysis results as key/value records and
// renders the terminal summary.
package report

import (
	"context"
	"encoding/json"
	"math"

	"github.com/riskhound/faultquant/pkg/engine"
	"github.com/riskhound/faultquant/pkg/storage"
)

// Value is a float64 that survives JSON encoding when infinite.
// Risk-reduction worth is +inf whenever P(top | x=0) reaches zero, and
// JSON has no literal for that.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsInf(f, 1) {
		return []byte(`"inf"`), nil
	}
	if math.IsInf(f, -1) {
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(f)
}

// ProbabilityRecord matches the probability.json structure.
type ProbabilityRecord struct {
	Value Value `json:"value"`
}

// FactorsRecord matches one by_event entry.
type FactorsRecord struct {
	Mif Value `json:"mif"`
	Cif Value `json:"cif"`
	Dif Value `json:"dif"`
	Raw Value `json:"raw"`
	Rrw Value `json:"rrw"`
}

// ImportanceRecord matches the importance.json structure.
type ImportanceRecord struct {
	ByEvent map[string]FactorsRecord `json:"by_event"`
}

// UncertaintyRecord matches the uncertainty.json structure.
type UncertaintyRecord struct {
	Mean        Value      `json:"mean"`
	Sigma       Value      `json:"sigma"`
	ErrorFactor Value      `json:"error_factor"`
	CI95Low     Value      `json:"ci95_low"`
	CI95High    Value      `json:"ci95_high"`
	Histogram   [][2]Value `json:"histogram"`
	Quantiles   []Value    `json:"quantiles"`
}

// Writer persists result records through a storage backend.
type Writer struct {
	store storage.ResultStore
}

func NewWriter(store storage.ResultStore) *Writer {
	return &Writer{store: store}
}

// Write emits one record per completed analysis.
func (w *Writer) Write(ctx context.Context, results *engine.Results) error {
	if results.ProbabilityRan {
		if err := w.put(ctx, "probability.json", ProbabilityRecord{Value: Value(results.PTotal)}); err != nil {
			return err
		}
	}
	if results.Importance != nil {
		record := ImportanceRecord{ByEvent: make(map[string]FactorsRecord, len(results.Importance))}
		for id, f := range results.Importance {
			record.ByEvent[id] = FactorsRecord{
				Mif: Value(f.MIF),
				Cif: Value(f.CIF),
				Dif: Value(f.DIF),
				Raw: Value(f.RAW),
				Rrw: Value(f.RRW),
			}
		}
		if err := w.put(ctx, "importance.json", record); err != nil {
			return err
		}
	}
	if results.Uncertainty != nil {
		u := results.Uncertainty
		record := UncertaintyRecord{
			Mean:        Value(u.Mean),
			Sigma:       Value(u.Sigma),
			ErrorFactor: Value(u.ErrorFactor),
			CI95Low:     Value(u.CI95Low),
			CI95High:    Value(u.CI95High),
		}
		for _, bin := range u.Histogram {
			record.Histogram = append(record.Histogram, [2]Value{Value(bin.Lower), Value(bin.Density)})
		}
		for _, q := range u.Quantiles {
			record.Quantiles = append(record.Quantiles, Value(q))
		}
		if err := w.put(ctx, "uncertainty.json", record); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) put(ctx context.Context, key string, record interface{}) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return w.store.Put(ctx, key, data)
}
