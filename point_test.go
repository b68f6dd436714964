package paintcore

import "testing"

func TestPoint_AddSub(t *testing.T) {
	p := Pt(1.5, -2)
	q := Pt(0.5, 3)

	if got := p.Add(q); got != Pt(2, 1) {
		t.Errorf("Add = %+v, want %+v", got, Pt(2, 1))
	}
	if got := p.Sub(q); got != Pt(1, -5) {
		t.Errorf("Sub = %+v, want %+v", got, Pt(1, -5))
	}
	if got := p.Add(q).Sub(q); got != p {
		t.Errorf("Add then Sub = %+v, want %+v", got, p)
	}
}
