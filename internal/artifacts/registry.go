// Package artifacts persists fitted models, the scaler and the feature column
// list as one versioned set.
//
// Every artifact of a run is written under runs/<run id>/; the set becomes
// visible only when manifest.yaml is published pointing at that run.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"hotel_churn/internal/domain"
	"hotel_churn/internal/model"
)

const ManifestName = "manifest.yaml"

// Manifest describes the published artifact set.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	CreatedAt time.Time `yaml:"created_at"`
	Features  []string  `yaml:"feature_columns"`
	Artifacts []string  `yaml:"artifacts"`
}

// Registry implements model.Sink over an ArtifactStore.
type Registry struct {
	store   domain.ArtifactStore
	now     func() time.Time
	runID   string
	written []string
}

func NewRegistry(store domain.ArtifactStore) *Registry {
	return &Registry{store: store, now: time.Now}
}

// Save writes v as JSON into the pending run.
func (r *Registry) Save(ctx context.Context, name string, v any) error {
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := r.store.Put(ctx, objectName(r.runID, name), b); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	r.written = append(r.written, name)
	return nil
}

// Commit publishes the pending run by writing the manifest.
func (r *Registry) Commit(ctx context.Context, features []string) error {
	if r.runID == "" {
		return fmt.Errorf("commit: nothing saved")
	}
	m := Manifest{
		RunID:     r.runID,
		CreatedAt: r.now().UTC(),
		Features:  features,
		Artifacts: r.written,
	}
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := r.store.Put(ctx, ManifestName, b); err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	r.runID, r.written = "", nil
	return nil
}

// Manifest reads the published manifest.
func (r *Registry) Manifest(ctx context.Context) (Manifest, error) {
	var m Manifest
	b, err := r.store.Get(ctx, ManifestName)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// Complete reports whether a published set holds every name in required.
func (r *Registry) Complete(ctx context.Context, required []string) (bool, error) {
	ok, err := r.store.Exists(ctx, ManifestName)
	if err != nil || !ok {
		return false, err
	}
	m, err := r.Manifest(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range required {
		ok, err := r.store.Exists(ctx, objectName(m.RunID, name))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Loaded is a published artifact set decoded back into models.
type Loaded struct {
	Manifest Manifest
	Models   map[string]model.Classifier
	Scaler   *model.StandardScaler
	Features []string
}

// Load decodes every strategy's model plus the scaler and feature columns.
// A missing artifact fails with ErrArtifactMissing naming it.
func (r *Registry) Load(ctx context.Context, strategies []model.Strategy) (*Loaded, error) {
	m, err := r.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	out := &Loaded{Manifest: m, Models: map[string]model.Classifier{}, Scaler: &model.StandardScaler{}}
	for _, st := range strategies {
		c := st.New()
		if err := r.decode(ctx, m.RunID, st.Name, c); err != nil {
			return nil, err
		}
		out.Models[st.Name] = c
	}
	if err := r.decode(ctx, m.RunID, model.NameScaler, out.Scaler); err != nil {
		return nil, err
	}
	if err := r.decode(ctx, m.RunID, model.NameFeatures, &out.Features); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) decode(ctx context.Context, runID, name string, dst any) error {
	b, err := r.store.Get(ctx, objectName(runID, name))
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func objectName(runID, name string) string {
	return path.Join("runs", runID, name+".json")
}
