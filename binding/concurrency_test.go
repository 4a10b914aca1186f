package binding

import (
	"context"
	"testing"
	"time"

	"github.com/chazu/mira/sched"
)

func TestDeferredDeliveryWaitsForQueue(t *testing.T) {
	q := sched.NewTaskQueue("ui")
	r := New()
	src := &widget{}
	dst := &widget{}
	srcReg := Register(r, src, nil)
	dstReg := Register(r, dst, q)
	defer srcReg.Close()
	defer dstReg.Close()

	if Connect(r, FromPtr(r, &dst.x), FromPtr(r, &src.x)) == 0 {
		t.Fatal("Connect returned 0")
	}

	Assign(r, &src.x, 5)
	// Deferred always enqueues, even though this goroutine owns the queue.
	if dst.x != 0 {
		t.Fatalf("dst.x = %d before drain, want 0", dst.x)
	}
	q.Process()
	if dst.x != 5 {
		t.Errorf("dst.x = %d after drain, want 5", dst.x)
	}
}

func TestImmediateDeliveryInlineOnOwner(t *testing.T) {
	q := sched.NewTaskQueue("ui")
	r := New()
	src := &widget{}
	dst := &widget{}
	srcReg := Register(r, src, nil)
	dstReg := Register(r, dst, q)
	defer srcReg.Close()
	defer dstReg.Close()

	Connect(r, FromPtr(r, &dst.x), FromPtr(r, &src.x), WithMode(Immediate))

	// This goroutine owns the destination queue, so Immediate applies
	// without a queue round trip.
	Assign(r, &src.x, 3)
	if dst.x != 3 {
		t.Errorf("dst.x = %d, want 3 applied inline", dst.x)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
}

func TestImmediateDeliveryEnqueuesOffOwner(t *testing.T) {
	q := sched.NewTaskQueue("ui")
	r := New()
	src := &widget{}
	dst := &widget{}
	srcReg := Register(r, src, nil)
	dstReg := Register(r, dst, q)
	defer srcReg.Close()
	defer dstReg.Close()

	Connect(r, FromPtr(r, &dst.x), FromPtr(r, &src.x), WithMode(Immediate))

	done := make(chan struct{})
	go func() {
		defer close(done)
		Assign(r, &src.x, 7)
	}()
	<-done

	if dst.x != 0 {
		t.Fatalf("dst.x = %d before drain, want 0", dst.x)
	}
	q.Process()
	if dst.x != 7 {
		t.Errorf("dst.x = %d after drain, want 7", dst.x)
	}
}

func TestDeferredDeliveryPreservesOrder(t *testing.T) {
	q := sched.NewTaskQueue("ui")
	r := New()
	src := &widget{}
	out := &widget{}
	srcReg := Register(r, src, nil)
	outReg := Register(r, out, q)
	defer srcReg.Close()
	defer outReg.Close()

	var applied []int64
	dst := Value[int64]{
		set: func(v int64) { applied = append(applied, v) },
		dst: AddrOf(&out.x),
	}
	Connect(r, dst, FromPtr(r, &src.x))

	Assign(r, &src.x, 1)
	Assign(r, &src.x, 2)
	q.Process()

	if len(applied) != 2 || applied[0] != 1 || applied[1] != 2 {
		t.Errorf("applied = %v, want [1 2]", applied)
	}
}

func TestPendingDeliveryDropsWhenRegionDies(t *testing.T) {
	q := sched.NewTaskQueue("ui")
	r := New()
	src := &widget{}
	dst := &widget{}
	srcReg := Register(r, src, nil)
	dstReg := Register(r, dst, q)
	defer srcReg.Close()

	Connect(r, FromPtr(r, &dst.x), FromPtr(r, &src.x))

	Assign(r, &src.x, 9)
	// The apply is parked on the queue; killing the destination region
	// first must turn it into a no-op.
	dstReg.Close()
	q.Process()

	if dst.x != 0 {
		t.Errorf("dst.x = %d after dead-region drain, want 0", dst.x)
	}
}

func TestBidirConvergesAcrossQueues(t *testing.T) {
	qa := sched.NewTaskQueue("a")
	qb := sched.NewTaskQueue("b")
	r := New()
	wa := &widget{}
	wb := &widget{}
	ra := Register(r, wa, qa)
	rb := Register(r, wb, qb)
	defer ra.Close()
	defer rb.Close()

	if ConnectBidir(r, FromPtr(r, &wa.x), FromPtr(r, &wb.x)) == 0 {
		t.Fatal("ConnectBidir returned 0")
	}

	Assign(r, &wa.x, 5)
	qb.Process() // applies to wb, whose assign pushes back toward wa
	qa.Process() // the echo arrives carrying an equal value and settles

	if wa.x != 5 || wb.x != 5 {
		t.Errorf("wa.x=%d wb.x=%d, want 5 5", wa.x, wb.x)
	}
	if qa.Len() != 0 || qb.Len() != 0 {
		t.Errorf("queues not quiescent: a=%d b=%d", qa.Len(), qb.Len())
	}
}

func TestDeliveryOnWorkerGoroutine(t *testing.T) {
	type hello struct {
		q   *sched.TaskQueue
		gid int64
	}
	ready := make(chan hello)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		q := sched.NewTaskQueue("worker")
		ready <- hello{q, sched.GoroutineID()}
		q.Run(ctx)
	}()
	w := <-ready

	r := New()
	src := &widget{}
	sink := &widget{}
	srcReg := Register(r, src, nil)
	sinkReg := Register(r, sink, w.q)
	defer srcReg.Close()
	defer sinkReg.Close()

	type seen struct {
		val int64
		gid int64
	}
	got := make(chan seen, 1)
	Listen(r, &sink.life, FromPtr(r, &src.x), func(v int64) {
		got <- seen{v, sched.GoroutineID()}
	}, WithMode(Deferred))

	Assign(r, &src.x, 42)

	select {
	case s := <-got:
		if s.val != 42 {
			t.Errorf("delivered value = %d, want 42", s.val)
		}
		if s.gid != w.gid {
			t.Errorf("listener ran on goroutine %d, want worker %d", s.gid, w.gid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the worker to deliver")
	}
}
