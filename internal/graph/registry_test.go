package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistrySeedsCanonicalHierarchy(t *testing.T) {
	r := NewRegistry()

	depends, ok := r.Lookup("depends_on")
	require.True(t, ok)
	assert.True(t, depends.IsTransitive)
	assert.True(t, depends.Core)

	extends, ok := r.Lookup("extends")
	require.True(t, ok)
	assert.True(t, extends.IsInheritable)
	assert.Equal(t, "depends_on", extends.ParentType)

	contains, ok := r.Lookup("contains")
	require.True(t, ok)
	assert.True(t, contains.IsTransitive)
	assert.True(t, contains.IsInheritable)

	_, ok = r.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestRegistryIsAAndAncestors(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.IsA("imports_file", "depends_on"))
	assert.True(t, r.IsA("imports_file", "imports"))
	assert.True(t, r.IsA("depends_on", "depends_on"))
	assert.False(t, r.IsA("calls", "contains"))

	assert.Equal(t, []string{"imports", "depends_on"}, r.Ancestors("imports_file"))
	assert.Empty(t, r.Ancestors("depends_on"))
}

func TestRegistryDescendantsIncludesSelf(t *testing.T) {
	r := NewRegistry()
	desc := r.Descendants("imports")

	assert.Contains(t, desc, "imports")
	assert.Contains(t, desc, "imports_file")
	assert.Contains(t, desc, "imports_library")
	assert.NotContains(t, desc, "calls")
}

func TestRegistryRegisterExtendedType(t *testing.T) {
	r := NewRegistry()

	err := r.Register(EdgeTypeDef{Name: "wraps", ParentType: "uses"})
	require.NoError(t, err)

	def, ok := r.Lookup("wraps")
	require.True(t, ok)
	assert.False(t, def.Core)
	assert.True(t, r.IsA("wraps", "depends_on"))
}

func TestRegistryRegisterRejectsUnknownParent(t *testing.T) {
	r := NewRegistry()
	err := r.Register(EdgeTypeDef{Name: "frobnicates", ParentType: "does_not_exist"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Kind: KindUnknownEdgeType}))
}

func TestRegistryRegisterRejectsDepthOverflow(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(EdgeTypeDef{Name: "level3", ParentType: "imports"}))

	err := r.Register(EdgeTypeDef{Name: "level4", ParentType: "level3"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Kind: KindHierarchyViolation}))
}

func TestRegistryLockRejectsFurtherRegistration(t *testing.T) {
	r := NewRegistry()
	r.Lock()
	assert.True(t, r.Locked())

	err := r.Register(EdgeTypeDef{Name: "late", ParentType: "uses"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, &Error{Kind: KindRegistryLocked}))
}

func TestRegistryRegisterRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	err := r.Register(EdgeTypeDef{Name: "calls", ParentType: "uses"})
	require.Error(t, err)
}
