package artifacts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"hotel_churn/internal/artifacts"
	"hotel_churn/internal/domain"
	"hotel_churn/internal/model"
)

func strategies() []model.Strategy {
	return []model.Strategy{
		{Name: model.NameLogistic, Scaled: true, New: func() model.Classifier { return model.NewLogisticRegression() }},
		{Name: model.NameForest, New: func() model.Classifier {
			f := model.NewRandomForest(42)
			f.NTrees = 5
			return f
		}},
	}
}

func TestRegistry_RoundTripThroughFS(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	reg := artifacts.NewRegistry(artifacts.NewFSStore(dir))

	X := [][]float64{{0, 1}, {1, 0}, {0.2, 0.9}, {0.9, 0.1}, {0.1, 0.8}, {0.8, 0.3}}
	y := []int{0, 1, 0, 1, 0, 1}
	lr := model.NewLogisticRegression()
	rf := model.NewRandomForest(42)
	rf.NTrees = 5
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := rf.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	scaler := &model.StandardScaler{Mean: []float64{0.5, 0.5}, Scale: []float64{1, 1}}
	features := []string{"a", "b"}

	for name, v := range map[string]any{
		model.NameLogistic: lr, model.NameForest: rf, model.NameScaler: scaler, model.NameFeatures: features,
	} {
		if err := reg.Save(ctx, name, v); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	required := []string{model.NameLogistic, model.NameForest, model.NameScaler, model.NameFeatures}
	if ok, _ := reg.Complete(ctx, required); ok {
		t.Fatal("set must not be complete before commit")
	}
	if err := reg.Commit(ctx, features); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ok, err := reg.Complete(ctx, required); !ok || err != nil {
		t.Fatalf("complete: %v %v", ok, err)
	}

	loaded, err := reg.Load(ctx, strategies())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded.Features, features) || !reflect.DeepEqual(loaded.Scaler, scaler) {
		t.Fatalf("loaded metadata: %+v", loaded)
	}
	for name, orig := range map[string]model.Classifier{model.NameLogistic: lr, model.NameForest: rf} {
		if !reflect.DeepEqual(loaded.Models[name].PredictProba(X), orig.PredictProba(X)) {
			t.Fatalf("%s predictions changed after reload", name)
		}
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "runs", loaded.Manifest.RunID, ".tmp-*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestRegistry_MissingArtifactIsNamed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	reg := artifacts.NewRegistry(artifacts.NewFSStore(dir))
	if err := reg.Save(ctx, model.NameLogistic, model.NewLogisticRegression()); err != nil {
		t.Fatal(err)
	}
	if err := reg.Commit(ctx, nil); err != nil {
		t.Fatal(err)
	}

	_, err := reg.Load(ctx, strategies())
	if !errors.Is(err, domain.ErrArtifactMissing) {
		t.Fatalf("want ErrArtifactMissing, got %v", err)
	}
	if want := model.NameForest; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q should name %s", err, want)
	}
}

func TestRegistry_NoManifest(t *testing.T) {
	reg := artifacts.NewRegistry(artifacts.NewFSStore(t.TempDir()))
	ok, err := reg.Complete(context.Background(), []string{model.NameScaler})
	if ok || err != nil {
		t.Fatalf("empty store: %v %v", ok, err)
	}
	if _, err := reg.Load(context.Background(), strategies()); !errors.Is(err, domain.ErrArtifactMissing) {
		t.Fatalf("want ErrArtifactMissing, got %v", err)
	}
}

func TestFSStore_OverwriteIsAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := artifacts.NewFSStore(dir)
	if err := s.Put(ctx, "x/a.json", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "x/a.json", []byte("2")); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "x", "a.json"))
	if err != nil || string(b) != "2" {
		t.Fatalf("content %q err %v", b, err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "x"))
	if len(entries) != 1 {
		t.Fatalf("directory holds %d entries", len(entries))
	}
}
