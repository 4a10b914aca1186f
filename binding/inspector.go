package binding

import (
	"fmt"
	"sort"

	"github.com/chazu/mira/tree"
)

// Inspector provides debugging inspection of a Registry: the registered
// regions, the edges stored in each, and aggregate counts. Snapshots are
// plain structs detached from the live graph, so they remain valid while
// the graph keeps changing.
type Inspector struct {
	r *Registry
}

// RegionInfo describes one region at snapshot time.
type RegionInfo struct {
	Range     Range
	Alive     bool
	Static    bool
	Scheduler string     // queue name, "" when deliveries fall back to main
	Edges     []EdgeInfo // insertion order
}

// EdgeInfo describes one stored edge. Multi-source edges appear once.
type EdgeInfo struct {
	Handle  Handle
	Sources []uintptr
	Dest    uintptr
	Mode    DeliveryMode
	SrcDesc string
	DstDesc string
}

// Stats aggregates graph counts.
type Stats struct {
	Regions int // live regions, the static region included
	Edges   int // distinct handles
}

// NewInspector creates an Inspector attached to r. Nil attaches to the
// process-wide default registry.
func NewInspector(r *Registry) *Inspector {
	if r == nil {
		r = Default()
	}
	return &Inspector{r: r}
}

// Regions snapshots every region in address order.
func (i *Inspector) Regions() []RegionInfo {
	i.r.mu.Lock()
	defer i.r.mu.Unlock()

	out := make([]RegionInfo, 0, len(i.r.regions))
	for _, rg := range i.r.regions {
		ri := RegionInfo{
			Range:  rg.rng,
			Alive:  rg.alive.Load(),
			Static: rg == i.r.static,
		}
		if named, ok := rg.sched.(interface{ Name() string }); ok {
			ri.Scheduler = named.Name()
		}

		seen := make(map[*edge]struct{})
		var edges []*edge
		for _, list := range rg.edges {
			for _, e := range list {
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				edges = append(edges, e)
			}
		}
		sort.Slice(edges, func(a, b int) bool { return edges[a].seq < edges[b].seq })
		for _, e := range edges {
			ri.Edges = append(ri.Edges, EdgeInfo{
				Handle:  e.id,
				Sources: append([]uintptr(nil), e.srcAddrs...),
				Dest:    e.dstAddr,
				Mode:    e.mode,
				SrcDesc: e.srcDesc,
				DstDesc: e.dstDesc,
			})
		}
		out = append(out, ri)
	}
	return out
}

// Stats counts regions and distinct edges.
func (i *Inspector) Stats() Stats {
	i.r.mu.Lock()
	defer i.r.mu.Unlock()

	handles := make(map[Handle]struct{})
	for _, rg := range i.r.regions {
		for _, list := range rg.edges {
			for _, e := range list {
				handles[e.id] = struct{}{}
			}
		}
	}
	return Stats{Regions: len(i.r.regions), Edges: len(handles)}
}

// Dump renders the snapshot as a tree, the form the CLI prints and tests
// compare. Addresses are hex strings so dumps stay readable.
func (i *Inspector) Dump() *tree.Node {
	regions := tree.Array()
	for _, ri := range i.Regions() {
		rn := tree.Object()
		rn.Set("range", tree.String(ri.Range.String()))
		rn.Set("alive", tree.Bool(ri.Alive))
		if ri.Static {
			rn.Set("static", tree.Bool(true))
		}
		if ri.Scheduler != "" {
			rn.Set("scheduler", tree.String(ri.Scheduler))
		}
		edges := tree.Array()
		for _, e := range ri.Edges {
			en := tree.Object()
			en.Set("handle", tree.Uint(uint64(e.Handle)))
			en.Set("mode", tree.String(e.Mode.String()))
			srcs := tree.Array()
			for _, a := range e.Sources {
				srcs.Append(tree.String(fmt.Sprintf("%#x", a)))
			}
			en.Set("sources", srcs)
			en.Set("dest", tree.String(fmt.Sprintf("%#x", e.Dest)))
			if e.SrcDesc != "" {
				en.Set("srcDesc", tree.String(e.SrcDesc))
			}
			if e.DstDesc != "" {
				en.Set("dstDesc", tree.String(e.DstDesc))
			}
			edges.Append(en)
		}
		rn.Set("edges", edges)
		regions.Append(rn)
	}

	stats := i.Stats()
	root := tree.Object()
	root.Set("regions", regions)
	root.Set("regionCount", tree.Int(int64(stats.Regions)))
	root.Set("edgeCount", tree.Int(int64(stats.Edges)))
	return root
}
