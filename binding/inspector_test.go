package binding

import "testing"

func TestInspectorRegions(t *testing.T) {
	r := New()
	ins := NewInspector(r)

	// A fresh registry holds only the static region.
	infos := ins.Regions()
	if len(infos) != 1 || !infos[0].Static {
		t.Fatalf("fresh registry regions = %+v, want only the static one", infos)
	}

	w1 := &widget{}
	w2 := &widget{}
	mustRegister(t, r, w1)
	mustRegister(t, r, w2)

	infos = ins.Regions()
	if len(infos) != 3 {
		t.Fatalf("regions = %d, want 3", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i].Range.Min < infos[i-1].Range.Min {
			t.Error("regions should be sorted by range start")
		}
	}
	for _, ri := range infos {
		if !ri.Alive {
			t.Errorf("region %v should be alive", ri.Range)
		}
	}
}

func TestInspectorEdges(t *testing.T) {
	r := New()
	src := &widget{}
	dst := &widget{}
	mustRegister(t, r, src)
	mustRegister(t, r, dst)

	h := Connect(r, FromPtr(r, &dst.x), FromPtr(r, &src.x),
		WithDescriptions("src.x", "dst.x"))
	Listen(r, &dst.life, FromPtr(r, &src.y), func(int64) {})

	var srcInfo *RegionInfo
	for _, ri := range NewInspector(r).Regions() {
		if ri.Range == RangeOf(src) {
			ri := ri
			srcInfo = &ri
		}
	}
	if srcInfo == nil {
		t.Fatal("source region missing from snapshot")
	}
	if len(srcInfo.Edges) != 2 {
		t.Fatalf("source region edges = %d, want 2", len(srcInfo.Edges))
	}

	first := srcInfo.Edges[0]
	if first.Handle != h {
		t.Errorf("first edge handle = %d, want %d", first.Handle, h)
	}
	if first.Mode != Deferred {
		t.Errorf("Connect default mode = %v, want Deferred", first.Mode)
	}
	if first.SrcDesc != "src.x" || first.DstDesc != "dst.x" {
		t.Errorf("descriptions = %q/%q, want src.x/dst.x", first.SrcDesc, first.DstDesc)
	}
	if first.Dest != AddrOf(&dst.x) {
		t.Errorf("Dest = %#x, want %#x", first.Dest, AddrOf(&dst.x))
	}

	second := srcInfo.Edges[1]
	if second.Mode != Immediate {
		t.Errorf("Listen default mode = %v, want Immediate", second.Mode)
	}
}

func TestInspectorStats(t *testing.T) {
	r := New()
	w := &widget{}
	mustRegister(t, r, w)

	if stats := NewInspector(r).Stats(); stats.Regions != 2 || stats.Edges != 0 {
		t.Errorf("Stats = %+v, want 2 regions and 0 edges", stats)
	}

	// A bidirectional pair counts once: one handle, two stored edges.
	ConnectBidir(r, FromPtr(r, &w.x), FromPtr(r, &w.y))
	if stats := NewInspector(r).Stats(); stats.Edges != 1 {
		t.Errorf("Edges = %d for a bidir pair, want 1", stats.Edges)
	}
}

func TestInspectorDump(t *testing.T) {
	r := New()
	src := &widget{}
	dst := &widget{}
	mustRegister(t, r, src)
	mustRegister(t, r, dst)
	Connect(r, FromPtr(r, &dst.x), FromPtr(r, &src.x))

	dump := NewInspector(r).Dump()

	regions, ok := dump.Get("regions")
	if !ok || regions.Len() != 3 {
		t.Fatalf("dump regions length = %d, want 3", regions.Len())
	}
	if n, _ := dump.Get("regionCount"); n == nil {
		t.Error("dump should carry regionCount")
	} else if v, _ := n.AsInt(); v != 3 {
		t.Errorf("regionCount = %d, want 3", v)
	}
	if n, _ := dump.Get("edgeCount"); n == nil {
		t.Error("dump should carry edgeCount")
	} else if v, _ := n.AsInt(); v != 1 {
		t.Errorf("edgeCount = %d, want 1", v)
	}

	// Every region entry renders its range and liveness.
	for _, rn := range regions.Items() {
		if _, ok := rn.Get("range"); !ok {
			t.Error("region entry missing range")
		}
		if alive, ok := rn.Get("alive"); !ok {
			t.Error("region entry missing alive")
		} else if v, _ := alive.AsBool(); !v {
			t.Error("live region should dump alive=true")
		}
	}
}

func TestInspectorNilAttachesToDefault(t *testing.T) {
	ins := NewInspector(nil)
	if ins.Stats().Regions < 1 {
		t.Error("default registry should expose at least the static region")
	}
}
