package binding

import "testing"

// slider is a fixture type with a property-exposed member.
type slider struct {
	value float64
	life  Lifetime
}

var sliderValue = Property[slider, float64]{
	Field: func(s *slider) *float64 { return &s.value },
	Name:  "value",
}

func TestPropertyBind(t *testing.T) {
	r := New()
	s := &slider{value: 0.25}
	reg := Register(r, s, nil)
	defer reg.Close()

	v := sliderValue.Bind(r, s)
	if got := v.Get(); got != 0.25 {
		t.Errorf("Get() = %v, want 0.25", got)
	}
	if v.Destination() != AddrOf(&s.value) {
		t.Error("property value should address the backing field")
	}

	var got []float64
	Listen(r, &s.life, v, func(nv float64) { got = append(got, nv) })

	v.Set(0.5)
	if s.value != 0.5 {
		t.Errorf("s.value = %v, want 0.5", s.value)
	}
	v.Set(0.5) // equal write stays silent
	if len(got) != 1 || got[0] != 0.5 {
		t.Errorf("callbacks = %v, want [0.5]", got)
	}
}

func TestPropertyGetOverride(t *testing.T) {
	r := New()
	s := &slider{value: 0.5}
	reg := Register(r, s, nil)
	defer reg.Close()

	percent := Property[slider, float64]{
		Field: func(s *slider) *float64 { return &s.value },
		Get:   func(s *slider) float64 { return s.value * 100 },
		Name:  "percent",
	}

	v := percent.Bind(r, s)
	if got := v.Get(); got != 50 {
		t.Errorf("Get() = %v, want 50", got)
	}
}

func TestPropertySetOverride(t *testing.T) {
	r := New()
	s := &slider{}
	reg := Register(r, s, nil)
	defer reg.Close()

	clamped := Property[slider, float64]{
		Field: func(s *slider) *float64 { return &s.value },
		Set: func(s *slider, v float64) {
			if v > 1 {
				v = 1
			}
			if v < 0 {
				v = 0
			}
			Assign(r, &s.value, v)
		},
		Name: "value",
	}

	v := clamped.Bind(r, s)

	var got []float64
	Listen(r, &s.life, v, func(nv float64) { got = append(got, nv) })

	v.Set(2.5)
	if s.value != 1 {
		t.Errorf("s.value = %v, want clamped 1", s.value)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("callbacks = %v, want the clamped [1]", got)
	}
}

func TestPropertyDrivesConnection(t *testing.T) {
	r := New()
	s := &slider{}
	mirror := &widget{}
	reg := Register(r, s, nil)
	defer reg.Close()
	mustRegister(t, r, mirror)

	scaled := Transform(sliderValue.Bind(r, s), func(v float64) int64 {
		return int64(v * 100)
	})
	if Connect(r, FromPtr(r, &mirror.x), scaled, WithMode(Immediate)) == 0 {
		t.Fatal("Connect returned 0")
	}

	sliderValue.Bind(r, s).Set(0.4)
	if mirror.x != 40 {
		t.Errorf("mirror.x = %d, want 40", mirror.x)
	}
}
