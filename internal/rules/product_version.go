package rules

import (
	"github.com/roach88/conventions/internal/convention"
	"github.com/roach88/conventions/internal/ir"
	"github.com/roach88/conventions/internal/metadata"
)

// ProductVersion stamps the engine version on a new model. The annotation is
// reserved, so it never reaches another chain.
type ProductVersion struct{}

func (ProductVersion) Name() string { return "ProductVersion" }

func (ProductVersion) Process(_ *convention.Context, ev convention.Event) error {
	e, ok := ev.(convention.ModelEvent)
	if !ok {
		return nil
	}
	m, ok := e.Model.(*metadata.Model)
	if !ok {
		return nil
	}
	_, err := m.SetAnnotation(metadata.AnnotationProductVersion, ir.String(ir.EngineVersion))
	return err
}
