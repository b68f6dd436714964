package layer

import (
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/paintcore"
)

func TestSerializeRoundTrip(t *testing.T) {
	l := New(KindVector, "shape", 6, 4)
	l.SetOffset(12.5, -3)
	l.SetRotation(15)
	l.SetScaleFactors(2, 0.5)
	l.SetOpacity(0.8)
	l.SetBlend(BlendMultiply)
	l.SetVisible(false)
	l.SetLocked(true)
	l.SetSource([]byte(`{"kind":"ellipse"}`))
	l.SetEffects(EffectList{{Type: EffectBlur, Enabled: true, Radius: 3}})
	l.Buffer().SetPixel(2, 1, paintcore.RGB(1, 0, 0))
	l.Buffer().SetPixel(5, 3, paintcore.RGBA{R: 0, G: 1, B: 0, A: 0.5})

	data, err := l.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}

	if got.ID() != l.ID() {
		t.Errorf("id = %q, want %q", got.ID(), l.ID())
	}
	if !got.Meta().Equal(l.Meta()) {
		t.Errorf("meta mismatch:\n got %+v\nwant %+v", got.Meta(), l.Meta())
	}
	if !got.Buffer().Equal(l.Buffer()) {
		t.Error("pixel content not restored byte for byte")
	}
	if string(got.Source()) != string(l.Source()) {
		t.Errorf("source = %q, want %q", got.Source(), l.Source())
	}
	if len(got.Effects()) != 1 || got.Effects()[0].Type != EffectBlur {
		t.Errorf("effects = %+v", got.Effects())
	}
}

func TestSerializeRoundTrip_EmptyBuffer(t *testing.T) {
	l := NewRaster("empty", 0, 0)
	data, err := l.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Buffer().IsEmpty() {
		t.Errorf("dims = %dx%d, want 0x0", got.Width(), got.Height())
	}
}

func TestRestoreSerialized(t *testing.T) {
	l := NewRaster("l", 4, 4)
	l.SetPixel(1, 1, paintcore.RGB(1, 0, 0))
	data, err := l.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	l.SetPixel(1, 1, paintcore.RGB(0, 0, 1))
	l.SetOffset(99, 99)
	v := l.Version()

	if err := l.RestoreSerialized(data); err != nil {
		t.Fatal(err)
	}
	if got := l.PixelAt(1, 1); got.R != 1 || got.B != 0 {
		t.Errorf("pixel = %+v, want red restored", got)
	}
	if x, y := l.Offset(); x != 0 || y != 0 {
		t.Errorf("offset = (%v,%v), want (0,0)", x, y)
	}
	if l.Version() <= v {
		t.Error("restore should bump the version")
	}
}

func TestRestoreSerialized_IDMismatch(t *testing.T) {
	a := NewRaster("a", 2, 2)
	b := NewRaster("b", 2, 2)
	data, err := a.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.RestoreSerialized(data); err == nil {
		t.Fatal("restoring another layer's record should fail")
	}
}

func TestDeserialize_NewerFormatRejected(t *testing.T) {
	data, err := msgpack.Marshal(map[string]any{"format": recordFormat + 1, "id": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Deserialize(data); err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("err = %v, want newer-format rejection", err)
	}
}

func TestDeserialize_Garbage(t *testing.T) {
	if _, err := Deserialize([]byte("not msgpack at all")); err == nil {
		t.Error("garbage input should fail to decode")
	}
}
