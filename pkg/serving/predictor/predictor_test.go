package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/synaptica-ai/cardiorisk/pkg/features"
	"github.com/synaptica-ai/cardiorisk/pkg/patient"
	"github.com/synaptica-ai/cardiorisk/pkg/storage"
)

func record() patient.Record {
	return patient.Record{
		Age: 61, Education: 1, Sex: patient.SexMale, IsSmoking: true, CigsPerDay: 20,
		PrevalentHyp: true, TotChol: 260, SysBP: 150, DiaBP: 95, BMI: 29,
		HeartRate: 85, Glucose: 110,
	}
}

func writeJSON(t *testing.T, dir, name string, v interface{}) {
	t.Helper()
	content, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func logisticArtifact(layout *features.Layout, weight float64) map[string]interface{} {
	coeffs := make([]float64, layout.Width())
	coeffs[0] = weight
	return map[string]interface{}{
		"model": map[string]interface{}{
			"name":          "cvd-logit",
			"version":       "3",
			"type":          "classification",
			"algorithm":     AlgorithmLogistic,
			"layout":        layout.Name(),
			"feature_names": layout.ColumnNames(),
			"weights":       map[string]interface{}{"bias": 0, "coefficients": coeffs},
		},
	}
}

func scalerArtifact(layout *features.Layout, columns []string) map[string]interface{} {
	mean := make([]float64, len(columns))
	scale := make([]float64, len(columns))
	for i := range columns {
		scale[i] = 1
	}
	mean[0] = 50
	scale[0] = 10
	return map[string]interface{}{
		"scaler": map[string]interface{}{
			"type":    "standard",
			"layout":  layout.Name(),
			"columns": columns,
			"mean":    mean,
			"scale":   scale,
		},
	}
}

func TestLoadAndPredictLogistic(t *testing.T) {
	layout, _ := features.Lookup(features.LayoutOneHotV2)
	dir := t.TempDir()
	writeJSON(t, dir, "model.json", logisticArtifact(layout, 1))
	writeJSON(t, dir, "scaler.json", scalerArtifact(layout, layout.ScaledColumns()))

	p, err := Load(context.Background(), storage.FileSource{Dir: dir}, Options{ModelURI: "model.json", ScalerURI: "scaler.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info := p.Info()
	if info.Layout != features.LayoutOneHotV2 || info.Version != "3" || len(info.Columns) != 21 || len(info.Scaled) != 9 {
		t.Fatalf("unexpected info %+v", info)
	}

	pred, err := p.Predict(record())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// age 61 scales to 1.1, the only weighted column
	want := 1 / (1 + math.Exp(-1.1))
	if math.Abs(pred.RiskProbability()-want) > 1e-9 {
		t.Fatalf("expected risk %v, got %v", want, pred.RiskProbability())
	}
	if pred.Label != 1 || pred.Confidence() != pred.RiskProbability() {
		t.Fatalf("unexpected prediction %+v", pred)
	}
	if math.Abs(pred.Vector.Values[0]-1.1) > 1e-9 {
		t.Fatalf("expected scaled age 1.1, got %v", pred.Vector.Values[0])
	}
}

func TestLoadRejectsContractDrift(t *testing.T) {
	onehot, _ := features.Lookup(features.LayoutOneHotV2)
	binary, _ := features.Lookup(features.LayoutBinaryV1)

	t.Run("scaler order", func(t *testing.T) {
		dir := t.TempDir()
		cols := onehot.ScaledColumns()
		cols[6], cols[7] = cols[7], cols[6]
		writeJSON(t, dir, "model.json", logisticArtifact(onehot, 1))
		writeJSON(t, dir, "scaler.json", scalerArtifact(onehot, cols))
		_, err := Load(context.Background(), storage.FileSource{Dir: dir}, Options{ModelURI: "model.json", ScalerURI: "scaler.json"})
		if !errors.Is(err, features.ErrContractMismatch) {
			t.Fatalf("expected contract mismatch, got %v", err)
		}
	})

	t.Run("configured layout", func(t *testing.T) {
		dir := t.TempDir()
		writeJSON(t, dir, "model.json", logisticArtifact(onehot, 1))
		_, err := Load(context.Background(), storage.FileSource{Dir: dir}, Options{ModelURI: "model.json", Layout: features.LayoutBinaryV1})
		if !errors.Is(err, features.ErrContractMismatch) {
			t.Fatalf("expected contract mismatch, got %v", err)
		}
	})

	t.Run("feature names", func(t *testing.T) {
		dir := t.TempDir()
		artifact := logisticArtifact(binary, 1)
		names := binary.ColumnNames()
		names[0], names[1] = names[1], names[0]
		artifact["model"].(map[string]interface{})["feature_names"] = names
		writeJSON(t, dir, "model.json", artifact)
		writeJSON(t, dir, "scaler.json", scalerArtifact(binary, binary.ScaledColumns()))
		_, err := Load(context.Background(), storage.FileSource{Dir: dir}, Options{ModelURI: "model.json", ScalerURI: "scaler.json"})
		if !errors.Is(err, features.ErrContractMismatch) {
			t.Fatalf("expected contract mismatch, got %v", err)
		}
	})

	t.Run("missing scaler", func(t *testing.T) {
		dir := t.TempDir()
		writeJSON(t, dir, "model.json", logisticArtifact(binary, 1))
		if _, err := Load(context.Background(), storage.FileSource{Dir: dir}, Options{ModelURI: "model.json"}); err == nil {
			t.Fatal("expected error when layout scales columns without a scaler")
		}
	})
}

func TestLoadRandomForest(t *testing.T) {
	layout, _ := features.Lookup(features.LayoutBinaryV1)
	dir := t.TempDir()
	writeJSON(t, dir, "rf.json", map[string]interface{}{
		"model": map[string]interface{}{
			"name":          "cvd-rf",
			"version":       "1",
			"algorithm":     AlgorithmRandomForest,
			"layout":        layout.Name(),
			"feature_names": layout.ColumnNames(),
			"forest": map[string]interface{}{
				"n_classes": 2,
				"trees": []interface{}{
					map[string]interface{}{"nodes": []interface{}{
						map[string]interface{}{"feature": 12, "threshold": 0.5, "left": 1, "right": 2},
						map[string]interface{}{"left": -1, "right": -1, "value": []float64{8, 2}},
						map[string]interface{}{"left": -1, "right": -1, "value": []float64{3, 7}},
					}},
				},
			},
		},
	})
	writeJSON(t, dir, "scaler.json", map[string]interface{}{
		"scaler": map[string]interface{}{
			"columns": layout.ScaledColumns(),
			"mean":    make([]float64, 7),
			"scale":   []float64{1, 1, 1, 1, 1, 1, 1},
		},
	})

	p, err := Load(context.Background(), storage.FileSource{Dir: dir}, Options{ModelURI: "rf.json", ScalerURI: "scaler.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred, err := p.Predict(record())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// hypertension_category is 1 for the record, so the right leaf applies
	if pred.Label != 1 || math.Abs(pred.RiskProbability()-0.7) > 1e-12 {
		t.Fatalf("unexpected prediction %+v", pred)
	}

	rec := record()
	rec.PrevalentHyp = false
	pred, err = p.Predict(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Label != 0 || math.Abs(pred.Confidence()-0.8) > 1e-12 {
		t.Fatalf("unexpected prediction %+v", pred)
	}
}

type stubClassifier struct {
	label int
	proba []float64
}

func (s stubClassifier) Predict([]float64) (int, error)            { return s.label, nil }
func (s stubClassifier) PredictProba([]float64) ([]float64, error) { return s.proba, nil }

func TestPredictWithStubClassifier(t *testing.T) {
	layout, _ := features.Lookup(features.LayoutOneHotV2)
	pipeline, err := features.NewPipeline(layout, identity{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := New(Info{Name: "stub"}, pipeline, stubClassifier{label: 1, proba: []float64{0.3, 0.7}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pred, err := p.Predict(record())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pred.Label != 1 || pred.RiskProbability() != 0.7 {
		t.Fatalf("unexpected prediction %+v", pred)
	}

	bad, _ := New(Info{}, pipeline, stubClassifier{label: 1, proba: []float64{1}})
	if _, err := bad.Predict(record()); err == nil {
		t.Fatal("expected error for single-class probabilities")
	}
}

type identity struct{}

func (identity) Transform(v []float64) ([]float64, error) { return v, nil }
