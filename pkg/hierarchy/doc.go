// Package hierarchy builds a cycle-checked transitive closure over a
// parent->children permission mapping.
//
// Holding a parent permission implies every permission reachable from it:
// given the edge "master_data.read" -> ["vendors.read", "products.read"],
// a principal holding only "master_data.read" also passes checks for the
// two children. The closure is computed once at build time; lookups are
// O(1) amortized afterwards.
//
// # Usage
//
//	import "github.com/dmitrymomot/permkit/pkg/hierarchy"
//
//	g, err := hierarchy.Build(map[string][]string{
//	    "master_data.read": {"vendors.read", "products.read", "inventory.read"},
//	    "crm.admin":        {"crm.settings", "crm.commission.read"},
//	})
//	if err != nil {
//	    // configuration is broken; disable expansion, keep direct checks
//	    g = hierarchy.Empty()
//	}
//
//	g.DescendantsOf("master_data.read") // [inventory.read products.read vendors.read]
//	g.Implies("crm.admin", "crm.settings") // true
//
// Edges may use any accepted identifier spelling; they are normalized
// during Build. Unlike principal permission data, the hierarchy mapping is
// configuration: a spelling that fails normalization is a build error
// (ErrInvalidEdge), not a silently dropped entry.
//
// # Cycles
//
// A permission reachable from itself makes the implied-permission relation
// meaningless, so Build fails with an error matching ErrCycleDetected that
// names the offending path. Callers degrade to Empty() so direct and
// legacy checks keep working while expansion stays off.
package hierarchy
