package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conventions/internal/ir"
)

func rel(nav, target string, required bool) ir.RelationshipSpec {
	return ir.RelationshipSpec{Navigation: nav, Target: target, Required: required}
}

func TestAnalyzeCyclesNone(t *testing.T) {
	spec := &ir.ModelSpec{Entities: []ir.EntitySpec{
		{Name: "Blog"},
		{Name: "Post", Relationships: []ir.RelationshipSpec{rel("Blog", "Blog", true)}},
	}}
	assert.Empty(t, AnalyzeCycles(spec))
	assert.NotNil(t, AnalyzeCycles(spec))
}

func TestAnalyzeCyclesOptionalBreaksCycle(t *testing.T) {
	spec := &ir.ModelSpec{Entities: []ir.EntitySpec{
		{Name: "Order", Relationships: []ir.RelationshipSpec{rel("Invoice", "Invoice", false)}},
		{Name: "Invoice", Relationships: []ir.RelationshipSpec{rel("Order", "Order", true)}},
	}}
	assert.Empty(t, AnalyzeCycles(spec))
}

func TestAnalyzeCyclesRequired(t *testing.T) {
	spec := &ir.ModelSpec{Entities: []ir.EntitySpec{
		{Name: "Order", Relationships: []ir.RelationshipSpec{rel("Invoice", "Invoice", true)}},
		{Name: "Invoice", Relationships: []ir.RelationshipSpec{rel("Order", "Order", true)}},
		{Name: "Employee", Relationships: []ir.RelationshipSpec{{Navigation: "Manager", Target: "Employee", Owned: true}}},
	}}

	warnings := AnalyzeCycles(spec)
	require.Len(t, warnings, 2)

	assert.Equal(t, []string{"Employee", "Employee"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)

	assert.Equal(t, []string{"Invoice", "Order", "Invoice"}, warnings[1].Path)
	assert.Equal(t, "required relationships form a cycle: Invoice → Order → Invoice", warnings[1].Message)
}

func TestAnalyzeCyclesDeterministic(t *testing.T) {
	spec := &ir.ModelSpec{Entities: []ir.EntitySpec{
		{Name: "C", Relationships: []ir.RelationshipSpec{rel("A", "A", true)}},
		{Name: "B", Relationships: []ir.RelationshipSpec{rel("C", "C", true)}},
		{Name: "A", Relationships: []ir.RelationshipSpec{rel("B", "B", true)}},
	}}

	first := AnalyzeCycles(spec)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeCycles(spec))
	}
	require.Len(t, first, 1)
	assert.Equal(t, []string{"A", "B", "C", "A"}, first[0].Path)
}
